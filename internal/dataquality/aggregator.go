package dataquality

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/marketlens/screener/internal/contracts"
	"github.com/marketlens/screener/internal/store"
	"github.com/marketlens/screener/pkg/logger"
)

// Aggregator computes and persists the daily quality snapshot. A compute
// failure aborts the run before any write, so a broken base query can never
// produce a half-filled row.
type Aggregator struct {
	repo   *store.DataQualityRepository
	logger *logger.Logger
}

func New(repo *store.DataQualityRepository, log *logger.Logger) *Aggregator {
	return &Aggregator{
		repo:   repo,
		logger: log.WithField("component", "dataquality"),
	}
}

// Today returns the snapshot date for a run started now: the server-local
// calendar day. A run crossing midnight keys on the day it started.
func Today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// Run computes the snapshot for dqDate, upserts it keyed on that date, and
// reads the stored row back. Re-running on the same date overwrites the
// existing row.
func (a *Aggregator) Run(ctx context.Context, dqDate time.Time, notes *string) (*contracts.DataQualitySnapshot, error) {
	day := dqDate.Format("2006-01-02")
	a.logger.WithField("dq_date", day).Info("quality snapshot started")

	snap, err := a.repo.ComputeCounts(ctx, dqDate)
	if err != nil {
		return nil, fmt.Errorf("quality snapshot for %s: %w", day, err)
	}

	applyPercentages(snap)
	snap.Notes = notes

	if err := a.repo.Upsert(ctx, *snap); err != nil {
		return nil, fmt.Errorf("quality snapshot for %s: %w", day, err)
	}

	stored, err := a.repo.GetByDate(ctx, dqDate)
	if err != nil {
		return nil, fmt.Errorf("quality snapshot readback for %s: %w", day, err)
	}

	a.logger.WithFields(map[string]interface{}{
		"dq_date":        day,
		"universe":       stored.CompaniesInDim,
		"pct_with_price": stored.PctWithPriceToday,
	}).Info("quality snapshot stored")
	return stored, nil
}

// applyPercentages derives the coverage percentages against the company
// dimension, which is what the coverage counts themselves are taken over.
func applyPercentages(s *contracts.DataQualitySnapshot) {
	base := s.CompaniesInDim
	s.PctWithPriceToday = pct(s.TickersWithPriceToday, base)
	s.PctWithMetricsToday = pct(s.TickersWithMetricsToday, base)
	s.PctWithMA200Today = pct(s.TickersWithMA200Today, base)
	s.PctWithRSIToday = pct(s.TickersWithRSIToday, base)
}

// pct is the coverage percentage rounded to two decimal places. An empty
// universe yields 0.0 rather than a division error.
func pct(count, universe int) float64 {
	if universe == 0 {
		return 0.0
	}
	return math.Round(float64(count)/float64(universe)*100.0*100.0) / 100.0
}
