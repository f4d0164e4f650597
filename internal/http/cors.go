package http

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// corsPreflightMaxAge is how long browsers may cache a preflight answer.
const corsPreflightMaxAge = 10 * time.Minute

// newCORSMiddleware returns nil unless CORS is enabled with at least one origin.
//
// Principals normally talk to the service from other servers; this only matters
// for browser clients calling /v1/kds/ticket directly. Credentials mode stays off
// because the admin token is sent explicitly in the Authorization header.
// A "*" entry allows every origin.
func newCORSMiddleware(enabled bool, allowOrigins string, logger *slog.Logger) gin.HandlerFunc {
	if !enabled {
		return nil
	}

	origins := splitOrigins(allowOrigins)
	if len(origins) == 0 {
		logger.Warn("CORS_ENABLED is set but CORS_ALLOW_ORIGINS is empty, CORS not applied")
		return nil
	}

	corsConfig := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowHeaders:  []string{"Authorization", "Content-Type"},
		ExposeHeaders: []string{"X-Request-Id", "Retry-After"},
		MaxAge:        corsPreflightMaxAge,
	}
	if slices.Contains(origins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
	}

	logger.Info("CORS enabled", slog.Any("origins", origins))
	return cors.New(corsConfig)
}

// splitOrigins turns a comma-separated list into trimmed, non-empty entries.
func splitOrigins(value string) []string {
	var origins []string
	for part := range strings.SplitSeq(value, ",") {
		if origin := strings.TrimSpace(part); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
