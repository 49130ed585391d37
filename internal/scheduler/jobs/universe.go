package jobs

import (
	"context"

	"github.com/marketlens/screener/internal/universe"
)

// UniverseJob refreshes the tracked universe from the index pages.
type UniverseJob struct {
	refresher *universe.Refresher
	events    EventPublisher
	schedule  string
}

func NewUniverseJob(refresher *universe.Refresher, events EventPublisher, schedule string) *UniverseJob {
	return &UniverseJob{refresher: refresher, events: events, schedule: schedule}
}

func (j *UniverseJob) Name() string     { return "universe-refresh" }
func (j *UniverseJob) Schedule() string { return j.schedule }

func (j *UniverseJob) Run(ctx context.Context) error {
	stats, err := j.refresher.Run(ctx)
	if err != nil {
		return err
	}
	j.events.Publish("universe.refreshed", stats)
	return nil
}
