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
	"github.com/marketlens/screener/internal/scheduler"
	"github.com/marketlens/screener/internal/scheduler/jobs"
)

var (
	schedPipeline     string
	schedUniverse     string
	schedQuality      string
	schedFundamentals string
	schedMaintenance  string
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the API server with the cron scheduler",
	Long: `Runs the HTTP API and the recurring jobs in one process: the daily
pipeline after market close, the weekly universe refresh, the daily quality
snapshot, and retention maintenance.`,
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

		sched := scheduler.New(a.log)
		jobList := []scheduler.Job{
			jobs.NewPipelineJob(a.engine, a.companies, a.warehouse, hub, schedPipeline),
			jobs.NewUniverseJob(a.refresher, hub, schedUniverse),
			jobs.NewQualityJob(a.aggregator, hub, schedQuality),
			jobs.NewFundamentalsJob(a.collector, hub, schedFundamentals),
			jobs.NewMaintenanceJob(a.prices, a.indicators, a.funds, a.cfg.RetentionDays, schedMaintenance, a.log),
		}
		for _, j := range jobList {
			if err := sched.Register(j); err != nil {
				return err
			}
		}

		sched.Start()
		defer sched.Stop()

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

func init() {
	schedulerCmd.Flags().StringVar(&schedPipeline, "pipeline-schedule", "30 17 * * 1-5", "cron schedule for the daily pipeline")
	schedulerCmd.Flags().StringVar(&schedUniverse, "universe-schedule", "0 6 * * 1", "cron schedule for the universe refresh")
	schedulerCmd.Flags().StringVar(&schedQuality, "quality-schedule", "15 18 * * 1-5", "cron schedule for the quality snapshot")
	schedulerCmd.Flags().StringVar(&schedFundamentals, "fundamentals-schedule", "0 7 * * 6", "cron schedule for the fundamentals refresh")
	schedulerCmd.Flags().StringVar(&schedMaintenance, "maintenance-schedule", "0 3 * * 0", "cron schedule for retention maintenance")
}
