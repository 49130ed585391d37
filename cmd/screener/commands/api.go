package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/marketlens/screener/internal/api"
	"github.com/marketlens/screener/internal/api/handlers"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		hub := api.NewHub(a.log)
		h := api.Handlers{
			Status:   handlers.NewStatusHandler(a.db, a.companies, a.prices, a.quality, a.log),
			Screener: handlers.NewScreenerHandler(a.warehouse, a.log),
			Ranking:  handlers.NewRankingHandler(a.warehouse, a.weights, a.log),
			Quality:  handlers.NewQualityHandler(a.aggregator, a.quality, hub, a.log),
			Pipeline: handlers.NewPipelineHandler(a.engine, a.companies, a.refresher, a.collector, a.warehouse, hub, a.log),
		}
		server := api.NewServer(a.cfg, h, hub, a.log)

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start()
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case sig := <-quit:
			a.log.WithField("signal", sig.String()).Info("shutdown signal received")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(ctx)
	},
}
