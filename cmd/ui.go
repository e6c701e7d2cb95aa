package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/logger"
	"github.com/spigell/assessment-recommender/internal/server"
	"github.com/spigell/assessment-recommender/internal/ui"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Serve the recommendation form against a running API",
	Run: func(_ *cobra.Command, _ []string) {
		serveUI()
	},
}

func init() {
	rootCmd.AddCommand(uiCmd)

	uiCmd.Flags().Int("port", ui.DefaultPort, "port to listen on")
	uiCmd.Flags().String("api-url", ui.DefaultAPIURL, "base url of the recommendation API")

	viper.BindPFlag("ui.port", uiCmd.Flags().Lookup("port"))
	viper.BindPFlag("ui.api-url", uiCmd.Flags().Lookup("api-url"))
}

func serveUI() {
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

	uiLog := logger.Component(lg, "ui")
	uiLog.Info("starting the form server",
		zap.String("version", version),
		zap.String("api_url", config.UI.APIURL),
	)

	if !viper.GetBool("debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	client := ui.NewClient(config.UI.APIURL, config.UI.Timeout, uiLog)
	engine := ui.NewEngine(ui.NewHandler(client, "", uiLog))

	addr := fmt.Sprintf(":%d", config.UI.Port)
	if err := server.Serve(ctx, addr, engine, config.Server.ShutdownTimeout, uiLog); err != nil {
		uiLog.Fatal("exiting", zap.Error(err))
	}
}
