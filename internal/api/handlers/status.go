package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/marketlens/screener/internal/store"
	"github.com/marketlens/screener/pkg/database"
	"github.com/marketlens/screener/pkg/logger"
)

// StatusHandler serves liveness and operational status.
type StatusHandler struct {
	db        *database.DB
	companies *store.CompanyRepository
	prices    *store.PriceRepository
	quality   *store.DataQualityRepository
	startedAt time.Time
	logger    *logger.Logger
}

func NewStatusHandler(db *database.DB, companies *store.CompanyRepository, prices *store.PriceRepository, quality *store.DataQualityRepository, log *logger.Logger) *StatusHandler {
	return &StatusHandler{
		db:        db,
		companies: companies,
		prices:    prices,
		quality:   quality,
		startedAt: time.Now(),
		logger:    log.WithField("handler", "status"),
	}
}

// Health handles GET /health.
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"reason": "database unreachable",
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Status handles GET /api/status.
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := map[string]interface{}{
		"uptime": time.Since(h.startedAt).Round(time.Second).String(),
	}

	if n, err := h.companies.Count(ctx); err == nil {
		status["companies"] = n
	}
	if n, err := h.prices.Count(ctx); err == nil {
		status["price_bars"] = n
	}
	snap, err := h.quality.Latest(ctx)
	switch {
	case err == nil:
		status["last_dq_date"] = snap.DQDate.Format("2006-01-02")
		status["last_dq_pct_with_price"] = snap.PctWithPriceToday
	case errors.Is(err, store.ErrSnapshotNotFound):
		status["last_dq_date"] = nil
	default:
		h.logger.WithError(err).Warn("status quality lookup failed")
	}

	respondJSON(w, http.StatusOK, status)
}
