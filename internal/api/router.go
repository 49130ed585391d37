package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/marketlens/screener/internal/api/handlers"
	"github.com/marketlens/screener/pkg/logger"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Status   *handlers.StatusHandler
	Screener *handlers.ScreenerHandler
	Ranking  *handlers.RankingHandler
	Quality  *handlers.QualityHandler
	Pipeline *handlers.PipelineHandler
}

func newRouter(h Handlers, hub *Hub, log *logger.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(recoveryMiddleware(log))
	r.Use(requestLogMiddleware(log))

	r.HandleFunc("/health", h.Status.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", h.Status.Status).Methods(http.MethodGet)

	api.HandleFunc("/screener", h.Screener.Latest).Methods(http.MethodGet)
	api.HandleFunc("/company/{ticker}/series", h.Screener.Series).Methods(http.MethodGet)

	api.HandleFunc("/rankings", h.Ranking.Rankings).Methods(http.MethodGet)
	api.HandleFunc("/ranking-config", h.Ranking.GetConfig).Methods(http.MethodGet)
	api.HandleFunc("/ranking-config", h.Ranking.PutConfig).Methods(http.MethodPut)

	api.HandleFunc("/dq/run", h.Quality.Run).Methods(http.MethodPost)
	api.HandleFunc("/dq/latest", h.Quality.Latest).Methods(http.MethodGet)
	api.HandleFunc("/dq/history", h.Quality.History).Methods(http.MethodGet)

	api.HandleFunc("/pipeline/run", h.Pipeline.Run).Methods(http.MethodPost)
	api.HandleFunc("/universe/refresh", h.Pipeline.RefreshUniverse).Methods(http.MethodPost)
	api.HandleFunc("/fundamentals/run", h.Pipeline.RunFundamentals).Methods(http.MethodPost)
	api.HandleFunc("/warehouse/transfer", h.Pipeline.Transfer).Methods(http.MethodPost)

	r.Handle("/ws/events", hub).Methods(http.MethodGet)

	return r
}

func requestLogMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start).String(),
			}).Debug("request handled")
		})
	}
}

func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.WithFields(map[string]interface{}{
						"panic": rec,
						"path":  r.URL.Path,
					}).Error("handler panicked")
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
