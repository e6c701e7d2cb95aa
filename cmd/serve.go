package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/assessment-recommender/internal/logger"
	"github.com/spigell/assessment-recommender/internal/scheduler"
	"github.com/spigell/assessment-recommender/internal/server"
	"github.com/spigell/assessment-recommender/internal/ui"
)

const uiMountPath = "/ui"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the recommendation API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", server.DefaultPort, "port to listen on")
	serveCmd.Flags().Bool("with-ui", false, "also serve the form under "+uiMountPath)
	serveCmd.Flags().String("refresh-schedule", "", "cron schedule for background catalog refreshes, e.g. \"@every 24h\"")
	serveCmd.Flags().Bool("warm", false, "load or refresh the catalog before accepting requests")

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("ui.mount", serveCmd.Flags().Lookup("with-ui"))
	viper.BindPFlag("catalog.refresh-schedule", serveCmd.Flags().Lookup("refresh-schedule"))
	viper.BindPFlag("catalog.warm", serveCmd.Flags().Lookup("warm"))
}

func serve() {
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

	lg.Info("starting the assessment-recommender", zap.String("version", version))

	appLog := logger.Component(lg, "app")

	c, err := buildComponents(ctx, config, lg)
	if err != nil {
		appLog.Fatal("building components", zap.Error(err))
	}

	if config.Catalog.Warm {
		if _, err := c.store.Get(ctx, false); err != nil {
			appLog.Warn("catalog is not available yet", zap.Error(err))
		}
	}

	srv := server.New(config.Server, server.Deps{
		Catalog:     c.store,
		Recommender: c.recommender,
		Metrics:     c.metrics,
		Version:     version,
		Logger:      logger.Component(lg, "api"),
	})

	if config.UI.Mount {
		h := ui.NewHandler(&ui.Local{Catalog: c.store, Recommender: c.recommender}, uiMountPath, logger.Component(lg, "ui"))
		h.Register(srv.Engine().Group(uiMountPath))
		appLog.Info("serving the form", zap.String("path", uiMountPath+"/"))
	}

	g, gctx := errgroup.WithContext(ctx)

	if config.Catalog.RefreshSchedule != "" {
		sched := scheduler.New(logger.Component(lg, "scheduler"))
		err := sched.Add("catalog-refresh", config.Catalog.RefreshSchedule, func(ctx context.Context) error {
			cat, err := c.store.Refresh(ctx)
			if err != nil {
				return err
			}
			appLog.Info("scheduled catalog refresh finished", zap.Int("count", cat.Len()))
			return nil
		})
		if err != nil {
			appLog.Fatal("scheduling catalog refresh", zap.Error(err))
		}

		g.Go(func() error {
			sched.Run(gctx)
			return nil
		})
	}

	g.Go(func() error {
		if err := srv.Run(gctx); err != nil {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		appLog.Fatal("exiting", zap.Error(err))
	}

	appLog.Info("exiting", zap.String("reason", "shutdown requested"))
}
