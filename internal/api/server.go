package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/marketlens/screener/pkg/config"
	"github.com/marketlens/screener/pkg/logger"
)

// Server is the HTTP front of the screener: read endpoints over the
// conformed store plus operator triggers for the pipelines.
type Server struct {
	httpServer *http.Server
	hub        *Hub
	logger     *logger.Logger
}

func NewServer(cfg *config.Config, h Handlers, hub *Hub, log *logger.Logger) *Server {
	router := newRouter(h, hub, log)
	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			// Pipeline trigger endpoints run synchronously and can be slow.
			WriteTimeout: 30 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		hub:    hub,
		logger: log.WithField("component", "api"),
	}
}

// Hub exposes the event hub so pipelines started outside HTTP can publish.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("api server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("api server shutting down")
	return s.httpServer.Shutdown(ctx)
}
