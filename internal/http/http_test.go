package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/kds/internal/config"
	kdsHTTP "github.com/allisson/kds/internal/kds/http"
	kdsService "github.com/allisson/kds/internal/kds/service"
	"github.com/allisson/kds/internal/kds/usecase/mocks"
	"github.com/allisson/kds/internal/metrics"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakePinger struct {
	err   error
	delay time.Duration
}

func (p *fakePinger) Ping(ctx context.Context) error {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return p.err
}

func TestProbes(t *testing.T) {
	tests := []struct {
		name     string
		keyStore Pinger
		path     string
		wantCode int
		wantBody string
	}{
		{"health ignores key store", nil, "/health", http.StatusOK, `{"status":"healthy"}`},
		{"ready", &fakePinger{}, "/ready", http.StatusOK, `{"status":"ready","components":{"key_store":"ok"}}`},
		{
			"key store down", &fakePinger{err: errors.New("connection refused")}, "/ready",
			http.StatusServiceUnavailable, `{"status":"not_ready","components":{"key_store":"error"}}`,
		},
		{
			"no key store", nil, "/ready",
			http.StatusServiceUnavailable, `{"status":"not_ready","components":{"key_store":"error"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := NewServer(tt.keyStore, "localhost", 8080, discardLogger())

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, tt.path, nil)

			if tt.path == "/health" {
				healthHandler(c)
			} else {
				server.readinessHandler(c)
			}

			assert.Equal(t, tt.wantCode, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestReadiness_SlowKeyStoreTimesOut(t *testing.T) {
	server := NewServer(&fakePinger{delay: time.Minute}, "localhost", 8080, discardLogger())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

	start := time.Now()
	server.readinessHandler(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Less(t, time.Since(start), readinessTimeout+time.Second)
}

func TestCustomLoggerMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	server := NewServer(&fakePinger{}, "localhost", 8080, logger)
	require.NoError(t, server.SetupRouter(
		context.Background(),
		&config.Config{},
		kdsHTTP.NewKDSHandler(&mocks.MockKDSUseCase{}, discardLogger()),
		kdsService.NewAdminTokenService(),
		nil,
		"kds",
	))

	for _, tc := range []struct {
		method, path string
		wantLevel    string
		wantStatus   float64
	}{
		{http.MethodGet, "/health", "INFO", http.StatusOK},
		{http.MethodGet, "/v1/kds/keys/alice", "WARN", http.StatusForbidden},
	} {
		buf.Reset()
		w := httptest.NewRecorder()
		server.GetHandler().ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))

		var entry map[string]any
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))

		assert.Equal(t, "http request", entry["msg"])
		assert.Equal(t, tc.wantLevel, entry["level"])
		assert.Equal(t, tc.path, entry["path"])
		assert.Equal(t, tc.wantStatus, entry["status"])
		assert.Equal(t, w.Header().Get("X-Request-Id"), entry["request_id"])

		_, err := uuid.Parse(w.Header().Get("X-Request-Id"))
		assert.NoError(t, err, "request ids are UUIDv7")
	}
}

func TestRecoveryLogsPanicsAsErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	router := gin.New()
	router.Use(gin.Recovery(), CustomLoggerMiddleware(logger))
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
}

func TestServer_StartAndShutdown(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	server := NewServer(&fakePinger{}, "127.0.0.1", port, discardLogger())
	require.NoError(t, server.SetupRouter(
		context.Background(),
		&config.Config{},
		kdsHTTP.NewKDSHandler(&mocks.MockKDSUseCase{}, discardLogger()),
		kdsService.NewAdminTokenService(),
		nil,
		"kds",
	))

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start(context.Background()) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + server.server.Addr + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Shutdown(ctx))
	assert.NoError(t, <-errCh)
}

func TestMetricsServer_Endpoints(t *testing.T) {
	provider, err := metrics.NewProvider("test_app", "0.0.1")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	metricsServer := NewMetricsServer("localhost", 8081, discardLogger(), provider)

	w := httptest.NewRecorder()
	metricsServer.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, w.Body.String(), "target_info")

	w = httptest.NewRecorder()
	metricsServer.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

// setupFullRouter builds a server with every KDS route registered against a mocked use case.
func setupFullRouter(t *testing.T, cfg *config.Config) (*Server, *mocks.MockKDSUseCase) {
	t.Helper()

	logger := discardLogger()
	mockUseCase := &mocks.MockKDSUseCase{}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	server := NewServer(&fakePinger{}, "localhost", 8080, logger)
	require.NoError(t, server.SetupRouter(
		ctx,
		cfg,
		kdsHTTP.NewKDSHandler(mockUseCase, logger),
		kdsService.NewAdminTokenService(),
		nil,
		"kds",
	))
	return server, mockUseCase
}

// TestServer_Routes checks route wiring and which routes require the admin token.
func TestServer_Routes(t *testing.T) {
	cfg := &config.Config{RateLimitTicketEnabled: true, RateLimitTicketRequestsPerSec: 10, RateLimitTicketBurst: 20}
	server, mockUseCase := setupFullRouter(t, cfg)
	mockUseCase.On("GetInfo", mock.Anything).Return("0.0.1")

	tests := []struct {
		name         string
		method       string
		path         string
		expectedCode int
	}{
		{name: "info", method: http.MethodGet, path: "/v1/kds/info", expectedCode: http.StatusOK},
		{name: "ticket without body", method: http.MethodPost, path: "/v1/kds/ticket", expectedCode: http.StatusBadRequest},
		{name: "key export", method: http.MethodGet, path: "/v1/kds/keys/alice", expectedCode: http.StatusForbidden},
		{name: "set key disabled without admin hash", method: http.MethodPut, path: "/v1/kds/keys/alice", expectedCode: http.StatusForbidden},
		{name: "create key disabled without admin hash", method: http.MethodPost, path: "/v1/kds/keys", expectedCode: http.StatusForbidden},
		{name: "health", method: http.MethodGet, path: "/health", expectedCode: http.StatusOK},
		{name: "ready", method: http.MethodGet, path: "/ready", expectedCode: http.StatusOK},
		{name: "no metrics on main server", method: http.MethodGet, path: "/metrics", expectedCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, tt.path, nil)
			server.GetHandler().ServeHTTP(w, req)

			assert.Equal(t, tt.expectedCode, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
		})
	}
}

// TestServer_AdminRoutesAcceptToken checks the admin routes with a configured token.
func TestServer_AdminRoutesAcceptToken(t *testing.T) {
	plainToken, tokenHash, err := kdsService.NewAdminTokenService().GenerateToken()
	require.NoError(t, err)

	server, mockUseCase := setupFullRouter(t, &config.Config{AdminTokenHash: tokenHash})
	mockUseCase.On("SetKey", mock.Anything, "alice", []byte("secret")).Return(nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/v1/kds/keys/alice", strings.NewReader(`{"key":"c2VjcmV0"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+plainToken)
	server.GetHandler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/v1/kds/keys/alice", strings.NewReader(`{"key":"c2VjcmV0"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer wrong")
	server.GetHandler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockUseCase.AssertExpectations(t)
}

// TestServer_TicketRateLimited checks that the rate limiter only guards the ticket route.
func TestServer_TicketRateLimited(t *testing.T) {
	cfg := &config.Config{RateLimitTicketEnabled: true, RateLimitTicketRequestsPerSec: 0.1, RateLimitTicketBurst: 1}
	server, mockUseCase := setupFullRouter(t, cfg)
	mockUseCase.On("GetInfo", mock.Anything).Return("0.0.1")

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		server.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/kds/ticket", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusBadRequest, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)

	w := httptest.NewRecorder()
	server.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/kds/info", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestServer_StartWithoutRouter checks that Start refuses to run unconfigured.
func TestServer_StartWithoutRouter(t *testing.T) {
	err := NewServer(&fakePinger{}, "localhost", 0, discardLogger()).Start(context.Background())
	assert.Error(t, err)
}
