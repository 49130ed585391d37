package jobs

import (
	"context"
	"fmt"

	"github.com/marketlens/screener/internal/ingest"
	"github.com/marketlens/screener/internal/store"
)

// EventPublisher pushes job lifecycle events to the API event stream.
type EventPublisher interface {
	Publish(eventType string, payload interface{})
}

// PipelineJob runs the daily ingestion over the whole tracked universe and
// then refreshes the conformed store.
type PipelineJob struct {
	engine    *ingest.Engine
	companies *store.CompanyRepository
	warehouse *store.WarehouseRepository
	events    EventPublisher
	schedule  string
}

func NewPipelineJob(engine *ingest.Engine, companies *store.CompanyRepository, warehouse *store.WarehouseRepository, events EventPublisher, schedule string) *PipelineJob {
	return &PipelineJob{
		engine:    engine,
		companies: companies,
		warehouse: warehouse,
		events:    events,
		schedule:  schedule,
	}
}

func (j *PipelineJob) Name() string     { return "daily-pipeline" }
func (j *PipelineJob) Schedule() string { return j.schedule }

func (j *PipelineJob) Run(ctx context.Context) error {
	tickers, err := j.companies.Tickers(ctx)
	if err != nil {
		return err
	}
	if len(tickers) == 0 {
		return fmt.Errorf("universe is empty")
	}

	j.events.Publish("pipeline.started", map[string]int{"tickers": len(tickers)})
	summary, err := j.engine.Run(ctx, tickers)
	if err != nil {
		j.events.Publish("pipeline.failed", map[string]string{"error": err.Error()})
		return err
	}
	j.events.Publish("pipeline.completed", summary)

	stats, err := j.warehouse.Transfer(ctx)
	if err != nil {
		return fmt.Errorf("warehouse transfer after ingest: %w", err)
	}
	j.events.Publish("warehouse.transferred", stats)
	return nil
}
