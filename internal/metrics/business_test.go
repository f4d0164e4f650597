package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertBizMetricLine checks that the Prometheus output contains a business metric
// matching the given name, partial label pattern, and value. Uses regex to handle
// extra OTel scope labels injected by the Prometheus exporter.
func assertBizMetricLine(t *testing.T, output, name, labels, value string) {
	t.Helper()
	pattern := name + `\{[^}]*` + labels + `[^}]*\} ` + value
	assert.Regexp(t, pattern, output)
}

func scrape(t *testing.T, provider *Provider) string {
	t.Helper()
	w := httptest.NewRecorder()
	provider.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestBusinessMetrics_RecordOperation(t *testing.T) {
	provider, err := NewProvider("kds_test", "0.0.1")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "kds_test")
	require.NoError(t, err)

	ctx := context.Background()
	bm.RecordOperation(ctx, OperationSessionKeyGet, OutcomeSuccess, 5*time.Millisecond)
	bm.RecordOperation(ctx, OperationSessionKeyGet, OutcomeSuccess, 7*time.Millisecond)
	bm.RecordOperation(ctx, OperationSessionKeyGet, OutcomeRejected, time.Millisecond)
	bm.RecordOperation(ctx, OperationSessionKeyGet, OutcomeRejected, time.Millisecond)
	bm.RecordOperation(ctx, OperationSessionKeyGet, OutcomeRejected, time.Millisecond)
	bm.RecordOperation(ctx, OperationKeySet, OutcomeError, 20*time.Millisecond)

	output := scrape(t, provider)

	assertBizMetricLine(t, output, `kds_test_operations_total`,
		`operation="session_key_get".*outcome="success"`, `2`)
	assertBizMetricLine(t, output, `kds_test_operations_total`,
		`operation="session_key_get".*outcome="rejected"`, `3`)
	assertBizMetricLine(t, output, `kds_test_operations_total`,
		`operation="key_set".*outcome="error"`, `1`)
	assertBizMetricLine(t, output, `kds_test_operation_duration_seconds_count`,
		`operation="session_key_get".*outcome="success"`, `2`)
	assertBizMetricLine(t, output, `kds_test_operation_duration_seconds_sum`,
		`operation="key_set".*outcome="error"`, `0.02`)
	assert.NotContains(t, output, `operation="key_set",outcome="success"`)
}

func TestNoOpBusinessMetrics(t *testing.T) {
	noOp := NewNoOpBusinessMetrics()
	assert.IsType(t, &NoOpBusinessMetrics{}, noOp)
	assert.NotPanics(t, func() {
		noOp.RecordOperation(context.Background(), OperationKeySet, OutcomeSuccess, time.Second)
	})
}
