package jobs

import (
	"context"

	"github.com/marketlens/screener/internal/fundamentals"
)

// FundamentalsJob refreshes stale fundamentals snapshots.
type FundamentalsJob struct {
	collector *fundamentals.Collector
	events    EventPublisher
	schedule  string
}

func NewFundamentalsJob(collector *fundamentals.Collector, events EventPublisher, schedule string) *FundamentalsJob {
	return &FundamentalsJob{collector: collector, events: events, schedule: schedule}
}

func (j *FundamentalsJob) Name() string     { return "fundamentals-refresh" }
func (j *FundamentalsJob) Schedule() string { return j.schedule }

func (j *FundamentalsJob) Run(ctx context.Context) error {
	stats, err := j.collector.Run(ctx)
	if err != nil {
		return err
	}
	j.events.Publish("fundamentals.completed", stats)
	return nil
}
