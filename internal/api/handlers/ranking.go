package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/marketlens/screener/internal/contracts"
	"github.com/marketlens/screener/internal/ranking"
	"github.com/marketlens/screener/internal/store"
	"github.com/marketlens/screener/pkg/logger"
)

// RankingHandler serves derived rankings and manages weight configurations.
type RankingHandler struct {
	warehouse *store.WarehouseRepository
	weights   *store.WeightSetRepository
	logger    *logger.Logger
}

func NewRankingHandler(warehouse *store.WarehouseRepository, weights *store.WeightSetRepository, log *logger.Logger) *RankingHandler {
	return &RankingHandler{
		warehouse: warehouse,
		weights:   weights,
		logger:    log.WithField("handler", "ranking"),
	}
}

// Rankings handles GET /api/rankings. Scores are derived on every request
// against the active weight set; nothing is cached or persisted.
func (h *RankingHandler) Rankings(w http.ResponseWriter, r *http.Request) {
	ws, err := h.activeOrNamed(r)
	if err != nil {
		if errors.Is(err, store.ErrNoActiveWeightSet) {
			respondError(w, http.StatusConflict, "no active weight set configured")
			return
		}
		h.logger.WithError(err).Error("weight set load failed")
		respondError(w, http.StatusInternalServerError, "weight set load failed")
		return
	}

	inputs, err := h.warehouse.RankingInputs(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("ranking inputs query failed")
		respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"error":             "ranking inputs unavailable",
			"store_unavailable": true,
		})
		return
	}

	opts := ranking.Options{
		Sector: r.URL.Query().Get("sector"),
		Limit:  queryInt(r, "limit", 50),
	}
	ranked, err := ranking.Rank(inputs, *ws, opts)
	if err != nil {
		var verr *ranking.ValidationError
		if errors.As(err, &verr) {
			respondError(w, http.StatusConflict, verr.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "ranking failed")
		return
	}
	if ranked == nil {
		ranked = []contracts.RankingRow{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"weight_set": ws.Name,
		"count":      len(ranked),
		"results":    ranked,
	})
}

func (h *RankingHandler) activeOrNamed(r *http.Request) (*contracts.WeightSet, error) {
	if name := r.URL.Query().Get("set"); name != "" {
		return h.weights.Get(r.Context(), name)
	}
	return h.weights.Active(r.Context())
}

// GetConfig handles GET /api/ranking-config.
func (h *RankingHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	sets, err := h.weights.List(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("weight set list failed")
		respondError(w, http.StatusInternalServerError, "weight set list failed")
		return
	}
	if sets == nil {
		sets = []contracts.WeightSet{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"sets": sets})
}

type putConfigRequest struct {
	Name    string                 `json:"name"`
	Weights map[string]float64     `json:"weights"`
	Params  map[string]interface{} `json:"params"`
	Active  bool                   `json:"active"`
}

// PutConfig handles PUT /api/ranking-config. The weight set is validated
// before any write; an invalid set leaves the stored configuration
// untouched.
func (h *RankingHandler) PutConfig(w http.ResponseWriter, r *http.Request) {
	var req putConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := ranking.ValidateWeights(req.Weights); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ws := contracts.WeightSet{
		Name:    req.Name,
		Weights: req.Weights,
		Params:  req.Params,
		Active:  req.Active,
	}
	if err := h.weights.Save(r.Context(), ws); err != nil {
		h.logger.WithError(err).Error("weight set save failed")
		respondError(w, http.StatusInternalServerError, "weight set save failed")
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"name":   req.Name,
		"active": req.Active,
	}).Info("weight set saved")
	respondJSON(w, http.StatusOK, map[string]interface{}{"saved": req.Name, "active": req.Active})
}
