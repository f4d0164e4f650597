// Package http provides the HTTP server, routing and shared middleware.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/kds/internal/config"
	kdsHTTP "github.com/allisson/kds/internal/kds/http"
	kdsService "github.com/allisson/kds/internal/kds/service"
	"github.com/allisson/kds/internal/metrics"
)

// readinessTimeout bounds the key store ping behind /ready.
const readinessTimeout = 2 * time.Second

// Pinger is implemented by key stores that can report their own health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the public KDS listener: probes, info, tickets and key administration.
type Server struct {
	server   *http.Server
	router   *gin.Engine
	keyStore Pinger
	logger   *slog.Logger
}

// NewServer creates a new HTTP server. keyStore backs the readiness probe.
func NewServer(
	keyStore Pinger,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		keyStore: keyStore,
		logger:   logger,
		server:   newHTTPServer(host, port, nil),
	}
}

// SetupRouter registers middleware and routes.
//
// The ctx bounds background goroutines owned by middleware (rate limiter cleanup).
// metricsProvider may be nil when metrics are disabled.
func (s *Server) SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	kdsHandler *kdsHTTP.KDSHandler,
	adminTokenService kdsService.AdminTokenService,
	metricsProvider *metrics.Provider,
	metricsNamespace string,
) error {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := newCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if metricsProvider != nil {
		httpMetrics, err := metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), metricsNamespace)
		if err != nil {
			return err
		}
		router.Use(httpMetrics)
	}

	router.GET("/health", healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1/kds")
	{
		v1.GET("/info", kdsHandler.GetInfoHandler)

		ticketHandlers := []gin.HandlerFunc{}
		if cfg.RateLimitTicketEnabled {
			ticketHandlers = append(ticketHandlers, kdsHTTP.TicketRateLimitMiddleware(
				ctx,
				cfg.RateLimitTicketRequestsPerSec,
				cfg.RateLimitTicketBurst,
				s.logger,
			))
		}
		ticketHandlers = append(ticketHandlers, kdsHandler.GetTicketHandler)
		v1.POST("/ticket", ticketHandlers...)

		keys := v1.Group("/keys")
		keys.GET("/:owner", kdsHandler.GetKeyHandler)

		admin := keys.Group("")
		admin.Use(kdsHTTP.AdminAuthMiddleware(adminTokenService, cfg.AdminTokenHash, s.logger))
		{
			admin.PUT("/:owner", kdsHandler.SetKeyHandler)
			admin.POST("", kdsHandler.CreateKeyHandler)
		}
	}

	s.router = router
	return nil
}

// GetHandler returns the http.Handler, mainly for tests.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start serves until Shutdown. SetupRouter must have been called.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return fmt.Errorf("router not configured: call SetupRouter before Start")
	}
	s.server.Handler = s.router
	return serve(s.server, "http server", s.logger)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return shutdown(ctx, s.server, "http server", s.logger)
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports ready only when the key store answers a ping.
func (s *Server) readinessHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	keyStoreStatus := "ok"
	if s.keyStore == nil {
		keyStoreStatus = "error"
	} else if err := s.keyStore.Ping(ctx); err != nil {
		s.logger.Warn("readiness check failed", slog.String("component", "key_store"), slog.Any("error", err))
		keyStoreStatus = "error"
	}

	components := gin.H{"key_store": keyStoreStatus}
	if keyStoreStatus != "ok" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "components": components})
}
