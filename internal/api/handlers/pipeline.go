package handlers

import (
	"net/http"

	"github.com/marketlens/screener/internal/fundamentals"
	"github.com/marketlens/screener/internal/ingest"
	"github.com/marketlens/screener/internal/store"
	"github.com/marketlens/screener/internal/universe"
	"github.com/marketlens/screener/pkg/logger"
)

// PipelineHandler triggers ingestion runs over HTTP. Runs execute
// synchronously; operators watch progress on the event stream.
type PipelineHandler struct {
	engine    *ingest.Engine
	companies *store.CompanyRepository
	refresher *universe.Refresher
	collector *fundamentals.Collector
	warehouse *store.WarehouseRepository
	events    EventPublisher
	logger    *logger.Logger
}

func NewPipelineHandler(
	engine *ingest.Engine,
	companies *store.CompanyRepository,
	refresher *universe.Refresher,
	collector *fundamentals.Collector,
	warehouse *store.WarehouseRepository,
	events EventPublisher,
	log *logger.Logger,
) *PipelineHandler {
	return &PipelineHandler{
		engine:    engine,
		companies: companies,
		refresher: refresher,
		collector: collector,
		warehouse: warehouse,
		events:    events,
		logger:    log.WithField("handler", "pipeline"),
	}
}

// Run handles POST /api/pipeline/run: ingest the whole tracked universe.
func (h *PipelineHandler) Run(w http.ResponseWriter, r *http.Request) {
	tickers, err := h.companies.Tickers(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "universe lookup failed")
		return
	}
	if len(tickers) == 0 {
		respondError(w, http.StatusConflict, "universe is empty, refresh it first")
		return
	}

	h.events.Publish("pipeline.started", map[string]int{"tickers": len(tickers)})
	summary, err := h.engine.Run(r.Context(), tickers)
	if err != nil {
		h.logger.WithError(err).Error("pipeline run aborted")
		h.events.Publish("pipeline.failed", map[string]string{"error": err.Error()})
		respondError(w, http.StatusInternalServerError, "pipeline run aborted")
		return
	}
	h.events.Publish("pipeline.completed", summary)
	respondJSON(w, http.StatusOK, summary)
}

// RefreshUniverse handles POST /api/universe/refresh.
func (h *PipelineHandler) RefreshUniverse(w http.ResponseWriter, r *http.Request) {
	stats, err := h.refresher.Run(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("universe refresh failed")
		h.events.Publish("universe.failed", map[string]string{"error": err.Error()})
		respondError(w, http.StatusBadGateway, "universe refresh failed")
		return
	}
	h.events.Publish("universe.refreshed", stats)
	respondJSON(w, http.StatusOK, stats)
}

// RunFundamentals handles POST /api/fundamentals/run.
func (h *PipelineHandler) RunFundamentals(w http.ResponseWriter, r *http.Request) {
	stats, err := h.collector.Run(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("fundamentals run failed")
		respondError(w, http.StatusInternalServerError, "fundamentals run failed")
		return
	}
	h.events.Publish("fundamentals.completed", stats)
	respondJSON(w, http.StatusOK, stats)
}

// Transfer handles POST /api/warehouse/transfer.
func (h *PipelineHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	stats, err := h.warehouse.Transfer(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("warehouse transfer failed")
		respondError(w, http.StatusInternalServerError, "warehouse transfer failed")
		return
	}
	h.events.Publish("warehouse.transferred", stats)
	respondJSON(w, http.StatusOK, stats)
}
