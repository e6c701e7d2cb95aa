package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Scrape the assessment catalog and rewrite the cache file",
	Run: func(_ *cobra.Command, _ []string) {
		refresh()
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}

func refresh() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lg, err := newLogger()
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		lg.Fatal("getting a config", zap.Error(err))
	}

	c, err := buildComponents(ctx, config, lg)
	if err != nil {
		lg.Fatal("building components", zap.Error(err))
	}

	cat, err := c.store.Refresh(ctx)
	if err != nil {
		lg.Fatal("refreshing assessment catalog", zap.Error(err))
	}

	fmt.Printf("refreshed %d assessments (%d unnamed) into %s\n", cat.Len(), cat.UnnamedCount(), c.store.Path())
}
