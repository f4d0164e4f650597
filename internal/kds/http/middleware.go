package http

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	apperrors "github.com/allisson/kds/internal/errors"
	"github.com/allisson/kds/internal/httputil"
	kdsService "github.com/allisson/kds/internal/kds/service"
)

// AdminAuthMiddleware guards key administration routes with a static bearer token.
//
// The server only knows the Argon2id hash of the token. When no hash is configured
// every request is refused with 403, so set_key stays disabled by default.
//
// Authorization header format: "Bearer <token>" (case-insensitive "bearer")
func AdminAuthMiddleware(
	tokenService kdsService.AdminTokenService,
	tokenHash string,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenHash == "" {
			logger.Debug("admin request refused: no admin token configured")
			httputil.HandleErrorGin(c, apperrors.ErrForbidden, logger)
			c.Abort()
			return
		}

		authHeader := c.GetHeader("Authorization")
		const bearerPrefix = "bearer "
		if len(authHeader) <= len(bearerPrefix) ||
			!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
			logger.Debug("admin authentication failed: missing or malformed authorization header")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		if !tokenService.VerifyToken(authHeader[len(bearerPrefix):], tokenHash) {
			logger.Debug("admin authentication failed: token mismatch")
			httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
			c.Abort()
			return
		}

		c.Next()
	}
}

const (
	limiterSweepInterval = 5 * time.Minute
	limiterMaxIdle       = time.Hour
)

// ticketRateLimiterStore keeps one token bucket per client IP.
type ticketRateLimiterStore struct {
	limiters sync.Map // string -> *clientLimiter
	rps      float64
	burst    int
}

type clientLimiter struct {
	*rate.Limiter
	lastSeen atomic.Int64 // unix nanoseconds
}

// TicketRateLimitMiddleware gives each client IP (c.ClientIP) its own token
// bucket on POST /v1/kds/ticket. An empty bucket yields 429 with Retry-After set
// to the wait for the next token. Buckets idle for an hour are swept until ctx ends.
func TicketRateLimitMiddleware(ctx context.Context, rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	store := &ticketRateLimiterStore{rps: rps, burst: burst}
	go store.sweep(ctx, limiterSweepInterval, limiterMaxIdle)

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		limiter := store.getLimiter(clientIP)

		if !limiter.Allow() {
			retryAfter := store.retryAfter(limiter)
			logger.Debug("ticket rate limit exceeded",
				slog.String("client_ip", clientIP),
				slog.Int("retry_after", retryAfter))

			httputil.HandleRateLimitedGin(c, retryAfter)
			return
		}

		c.Next()
	}
}

func (s *ticketRateLimiterStore) getLimiter(ip string) *clientLimiter {
	now := time.Now().UnixNano()
	if v, ok := s.limiters.Load(ip); ok {
		cl := v.(*clientLimiter)
		cl.lastSeen.Store(now)
		return cl
	}

	cl := &clientLimiter{Limiter: rate.NewLimiter(rate.Limit(s.rps), s.burst)}
	cl.lastSeen.Store(now)
	actual, _ := s.limiters.LoadOrStore(ip, cl)
	return actual.(*clientLimiter)
}

// retryAfter is the whole number of seconds until limiter holds a token again.
func (s *ticketRateLimiterStore) retryAfter(limiter *clientLimiter) int {
	missing := 1 - limiter.Tokens()
	if missing <= 0 || s.rps <= 0 {
		return 1
	}
	return int(math.Ceil(missing / s.rps))
}

func (s *ticketRateLimiterStore) sweep(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.evictIdle(now.Add(-maxIdle))
		}
	}
}

// evictIdle drops buckets not used since threshold.
func (s *ticketRateLimiterStore) evictIdle(threshold time.Time) {
	cutoff := threshold.UnixNano()
	s.limiters.Range(func(key, value any) bool {
		if value.(*clientLimiter).lastSeen.Load() < cutoff {
			s.limiters.Delete(key)
		}
		return true
	})
}
