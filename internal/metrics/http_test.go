package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInstrumentedRouter(t *testing.T, provider *Provider) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	middleware, err := HTTPMetricsMiddleware(provider.MeterProvider(), "kds_test")
	require.NoError(t, err)

	router := gin.New()
	router.Use(middleware)
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/v1/kds/ticket", func(c *gin.Context) { c.Status(http.StatusUnauthorized) })
	router.PUT("/v1/kds/keys/:owner", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return router
}

func serve(router *gin.Engine, method, path string) int {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w.Code
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	provider, err := NewProvider("kds_test", "0.0.1")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	router := newInstrumentedRouter(t, provider)

	assert.Equal(t, http.StatusNoContent, serve(router, http.MethodPut, "/v1/kds/keys/alice"))
	assert.Equal(t, http.StatusNoContent, serve(router, http.MethodPut, "/v1/kds/keys/bob"))
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodPost, "/v1/kds/ticket"))
	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/wp-admin/setup.php"))
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health"))

	output := scrape(t, provider)

	assertBizMetricLine(t, output, `kds_test_http_requests_total`,
		`method="PUT".*path="/v1/kds/keys/:owner".*status_code="204"`, `2`)
	assertBizMetricLine(t, output, `kds_test_http_requests_total`,
		`method="POST".*path="/v1/kds/ticket".*status_code="401"`, `1`)
	assertBizMetricLine(t, output, `kds_test_http_requests_total`,
		`path="unmatched".*status_code="404"`, `1`)
	assertBizMetricLine(t, output, `kds_test_http_requests_in_flight`,
		`path="/v1/kds/ticket"`, `0`)
	assert.NotContains(t, output, `path="/health"`)
	assert.NotContains(t, output, `/v1/kds/keys/alice`)
}

func TestRouteLabel(t *testing.T) {
	assert.Equal(t, "/v1/kds/keys/:owner", routeLabel("/v1/kds/keys/:owner"))
	assert.Equal(t, unmatchedRoute, routeLabel(""))
}
