package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_Scrape(t *testing.T) {
	provider, err := NewProvider("kds_test", "0.0.1")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "kds_test")
	require.NoError(t, err)
	bm.RecordOperation(context.Background(), OperationKeySet, OutcomeSuccess, 0)

	output := scrape(t, provider)
	assert.Regexp(t, `target_info\{[^}]*service_name="kds_test"`, output)
	assert.Regexp(t, `target_info\{[^}]*service_version="0.0.1"`, output)
	assert.Contains(t, output, "go_goroutines")
	assert.Contains(t, output, "kds_test_operations_total")
}

func TestProvider_IndependentRegistries(t *testing.T) {
	first, err := NewProvider("kds_a", "0.0.1")
	require.NoError(t, err)
	second, err := NewProvider("kds_b", "0.0.1")
	require.NoError(t, err)

	bm, err := NewBusinessMetrics(first.MeterProvider(), "kds_a")
	require.NoError(t, err)
	bm.RecordOperation(context.Background(), OperationSessionKeyGet, OutcomeRejected, 0)

	assert.Contains(t, scrape(t, first), "kds_a_operations_total")
	assert.NotContains(t, scrape(t, second), "kds_a_operations_total")
}

func TestProvider_Shutdown(t *testing.T) {
	provider, err := NewProvider("kds_test", "0.0.1")
	require.NoError(t, err)
	assert.NoError(t, provider.Shutdown(context.Background()))

	assert.NoError(t, (&Provider{}).Shutdown(context.Background()))
}
