// Package api serves the ingestion and status HTTP API.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/adamscao/certwatch/internal/api/handlers"
	"github.com/adamscao/certwatch/internal/api/middleware"
	"github.com/adamscao/certwatch/internal/config"
)

const shutdownTimeout = 10 * time.Second

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	config *config.Config
	logger *zap.Logger
}

// NewServer creates a new API server. A nil gatherer disables /metrics.
func NewServer(cfg *config.Config, t handlers.Tracker, logger *zap.Logger, gatherer prometheus.Gatherer) *Server {
	// Set Gin mode
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	logger = logger.With(zap.String("component", "api"))
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))

	// Create handlers
	recordHandler := handlers.NewRecordHandler(t, logger)
	hostHandler := handlers.NewHostHandler(t, logger)

	// API v1 routes
	v1 := router.Group("/v1")
	{
		// Agent endpoints
		records := v1.Group("/records")
		records.Use(middleware.AgentAuth(cfg.Ingest.TokenHashes))
		{
			records.POST("", recordHandler.CreateRecord)
		}

		// Dashboard endpoints
		v1.GET("/hosts", hostHandler.ListHosts)
		v1.GET("/hosts/:common_name", hostHandler.GetHost)
		v1.GET("/report", hostHandler.GetReport)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	if cfg.Metrics.Enabled && gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	return &Server{
		router: router,
		config: cfg,
		logger: logger,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Server.ListenAddr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ServeHTTP dispatches a request through the Gin router
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
