package metrics_test

import (
	"testing"

	"github.com/UnknownOlympus/groundhog/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	appMetrics := metrics.NewMetrics(reg)

	appMetrics.AssetsProcessed.WithLabelValues("success").Inc()
	appMetrics.RequestAttempts.WithLabelValues("failure").Add(2)
	appMetrics.RowsEnriched.Add(10)

	assert.InDelta(t, 2.0, testutil.ToFloat64(appMetrics.RequestAttempts.WithLabelValues("failure")), 1e-9)

	count, err := testutil.GatherAndCount(reg, "groundhog_assets_processed_total", "groundhog_rows_enriched_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.Panics(t, func() { metrics.NewMetrics(reg) })
}
