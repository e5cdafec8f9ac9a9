package ui

import (
	"context"
	"net/http"
	"time"

	"zhypo/app"
	"zhypo/internal"
	"zhypo/internal/config"
	"zhypo/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Server is the HTTP harness around the z-test service
type Server struct {
	router     *gin.Engine
	service    *app.ZTestService
	metrics    *metrics.Collector
	logger     *internal.Logger
	config     config.ServerConfig
	upload     config.UploadConfig
	httpServer *http.Server
}

// NewServer creates a new web server instance. metrics may be nil.
func NewServer(cfg *config.Config, service *app.ZTestService, collector *metrics.Collector, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	gin.SetMode(cfg.Server.GinMode)

	s := &Server{
		router:  gin.Default(),
		service: service,
		metrics: collector,
		logger:  logger,
		config:  cfg.Server,
		upload:  cfg.Upload,
	}

	s.setupMiddleware()
	s.setupRoutes()

	// Start and Shutdown reach this from different goroutines
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)

	// Path the browser calculator posts to
	s.router.POST("/calculate", s.handleCalculate)
	s.router.POST("/calculate/upload", s.handleCalculateUpload)

	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on the configured port until Shutdown is called. It returns
// nil right away if Shutdown already ran.
func (s *Server) Start() error {
	s.logger.Info("Starting z-test server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
