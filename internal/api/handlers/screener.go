package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/marketlens/screener/internal/store"
	"github.com/marketlens/screener/pkg/logger"
)

// ScreenerHandler serves the latest-state screener and series queries.
type ScreenerHandler struct {
	warehouse *store.WarehouseRepository
	logger    *logger.Logger
}

func NewScreenerHandler(warehouse *store.WarehouseRepository, log *logger.Logger) *ScreenerHandler {
	return &ScreenerHandler{
		warehouse: warehouse,
		logger:    log.WithField("handler", "screener"),
	}
}

// Latest handles GET /api/screener.
func (h *ScreenerHandler) Latest(w http.ResponseWriter, r *http.Request) {
	filter := store.ScreenerFilter{
		Query:        r.URL.Query().Get("q"),
		Sector:       r.URL.Query().Get("sector"),
		TrendBullish: queryBool(r, "bullish"),
		Oversold:     queryBool(r, "oversold"),
		Limit:        queryInt(r, "limit", 0),
	}
	if raw := r.URL.Query().Get("rsi_lte"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "rsi_lte must be a number")
			return
		}
		filter.RSIMax = &v
	}

	rows, err := h.warehouse.ScreenerLatest(r.Context(), filter)
	if err != nil {
		h.logger.WithError(err).Error("screener query failed")
		respondError(w, http.StatusInternalServerError, "screener query failed")
		return
	}
	if rows == nil {
		rows = []store.ScreenerRow{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(rows),
		"results": rows,
	})
}

// Series handles GET /api/series/{ticker}.
func (h *ScreenerHandler) Series(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]
	days := queryInt(r, "days", 365)
	if days < 1 || days > 3650 {
		respondError(w, http.StatusBadRequest, "days must be between 1 and 3650")
		return
	}

	points, err := h.warehouse.Series(r.Context(), ticker, days)
	if err != nil {
		h.logger.WithError(err).WithField("ticker", ticker).Error("series query failed")
		respondError(w, http.StatusInternalServerError, "series query failed")
		return
	}
	if len(points) == 0 {
		respondError(w, http.StatusNotFound, "no data for ticker")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ticker": ticker,
		"days":   days,
		"points": points,
	})
}
