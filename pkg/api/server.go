package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rzzdr/options-risk-engine/config"
	"github.com/rzzdr/options-risk-engine/internal/sink"
	"github.com/rzzdr/options-risk-engine/internal/store"
	"github.com/rzzdr/options-risk-engine/pkg/metrics"
	"github.com/rzzdr/options-risk-engine/pkg/utils/logger"
)

// Server exposes the latest cycle results and the beta-override store over
// HTTP. The hub is optional; when nil the /ws route is not registered.
type Server struct {
	config     config.APIConfig
	router     *gin.Engine
	httpServer *http.Server
	handlers   *Handlers
	hub        *sink.Hub
	metrics    bool
	log        *logger.Logger
}

// NewServer creates the API server and wires its routes
func NewServer(cfg config.APIConfig, latest *store.LatestStore, betas *store.BetaStore, hub *sink.Hub, recorder *metrics.Recorder, metricsEnabled bool) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		config:   cfg,
		router:   gin.New(),
		handlers: NewHandlers(latest, betas),
		hub:      hub,
		metrics:  metricsEnabled,
		log:      logger.GetLogger("api.server"),
	}

	s.router.Use(gin.Recovery())
	s.router.Use(LoggingMiddleware())
	if recorder != nil {
		s.router.Use(MetricsMiddleware(recorder))
	}

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handlers.Health)

	if s.metrics {
		s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/risk/summary", s.handlers.GetRiskSummary)
		v1.GET("/risk/exposures", s.handlers.GetExposures)
		v1.GET("/positions", s.handlers.GetPositions)

		v1.GET("/betas", s.handlers.GetBetas)
		v1.PUT("/betas/:symbol", s.handlers.PutBeta)
		v1.DELETE("/betas/:symbol", s.handlers.DeleteBeta)
	}

	if s.hub != nil {
		s.router.GET("/ws", func(c *gin.Context) {
			s.hub.ServeWS(c.Writer, c.Request)
		})
	}
}

// Router exposes the underlying handler for tests and embedding
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the server until it fails or Stop is called. It returns nil on
// a clean shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.log.Infof("Starting API server on %s", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.log.Info("Stopping API server")
	return s.httpServer.Shutdown(ctx)
}
