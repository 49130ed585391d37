package handlers

import (
	"errors"
	"net/http"

	"github.com/marketlens/screener/internal/dataquality"
	"github.com/marketlens/screener/internal/store"
	"github.com/marketlens/screener/pkg/logger"
)

// QualityHandler triggers and serves data quality snapshots.
type QualityHandler struct {
	aggregator *dataquality.Aggregator
	repo       *store.DataQualityRepository
	events     EventPublisher
	logger     *logger.Logger
}

func NewQualityHandler(agg *dataquality.Aggregator, repo *store.DataQualityRepository, events EventPublisher, log *logger.Logger) *QualityHandler {
	return &QualityHandler{
		aggregator: agg,
		repo:       repo,
		events:     events,
		logger:     log.WithField("handler", "quality"),
	}
}

// Run handles POST /api/dq/run: compute, persist, and return today's
// snapshot.
func (h *QualityHandler) Run(w http.ResponseWriter, r *http.Request) {
	snap, err := h.aggregator.Run(r.Context(), dataquality.Today(), nil)
	if err != nil {
		h.logger.WithError(err).Error("quality run failed")
		h.events.Publish("dq.failed", map[string]string{"error": err.Error()})
		respondError(w, http.StatusInternalServerError, "quality run failed")
		return
	}
	h.events.Publish("dq.completed", snap)
	respondJSON(w, http.StatusOK, snap)
}

// Latest handles GET /api/dq/latest.
func (h *QualityHandler) Latest(w http.ResponseWriter, r *http.Request) {
	snap, err := h.repo.Latest(r.Context())
	if errors.Is(err, store.ErrSnapshotNotFound) {
		respondError(w, http.StatusNotFound, "no quality snapshot yet")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("quality lookup failed")
		respondError(w, http.StatusInternalServerError, "quality lookup failed")
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// History handles GET /api/dq/history.
func (h *QualityHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 30)
	if limit < 1 || limit > 365 {
		respondError(w, http.StatusBadRequest, "limit must be between 1 and 365")
		return
	}

	snaps, err := h.repo.History(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("quality history failed")
		respondError(w, http.StatusInternalServerError, "quality history failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":     len(snaps),
		"snapshots": snaps,
	})
}
