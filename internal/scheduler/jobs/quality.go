package jobs

import (
	"context"

	"github.com/marketlens/screener/internal/dataquality"
)

// QualityJob writes the daily data quality snapshot after the pipeline has
// had a chance to run.
type QualityJob struct {
	aggregator *dataquality.Aggregator
	events     EventPublisher
	schedule   string
}

func NewQualityJob(agg *dataquality.Aggregator, events EventPublisher, schedule string) *QualityJob {
	return &QualityJob{aggregator: agg, events: events, schedule: schedule}
}

func (j *QualityJob) Name() string     { return "daily-quality" }
func (j *QualityJob) Schedule() string { return j.schedule }

func (j *QualityJob) Run(ctx context.Context) error {
	snap, err := j.aggregator.Run(ctx, dataquality.Today(), nil)
	if err != nil {
		j.events.Publish("dq.failed", map[string]string{"error": err.Error()})
		return err
	}
	j.events.Publish("dq.completed", snap)
	return nil
}
