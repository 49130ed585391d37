package jobs

import (
	"context"
	"time"

	"github.com/marketlens/screener/internal/store"
	"github.com/marketlens/screener/pkg/logger"
)

// MaintenanceJob trims ingestion-side history past the retention window.
// The conformed store keeps the full history; only the working tables are
// trimmed.
type MaintenanceJob struct {
	prices        *store.PriceRepository
	indicators    *store.IndicatorRepository
	funds         *store.FundamentalsRepository
	retentionDays int
	schedule      string
	logger        *logger.Logger
}

func NewMaintenanceJob(prices *store.PriceRepository, indicators *store.IndicatorRepository, funds *store.FundamentalsRepository, retentionDays int, schedule string, log *logger.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		prices:        prices,
		indicators:    indicators,
		funds:         funds,
		retentionDays: retentionDays,
		schedule:      schedule,
		logger:        log.WithField("job", "maintenance"),
	}
}

func (j *MaintenanceJob) Name() string     { return "retention-maintenance" }
func (j *MaintenanceJob) Schedule() string { return j.schedule }

func (j *MaintenanceJob) Run(ctx context.Context) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -j.retentionDays).Format("2006-01-02")

	pricesPurged, err := j.prices.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	metricsPurged, err := j.indicators.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	fundsPurged, err := j.funds.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"cutoff":         cutoff,
		"prices_purged":  pricesPurged,
		"metrics_purged": metricsPurged,
		"funds_purged":   fundsPurged,
	}).Info("retention maintenance done")
	return nil
}
