package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	AssetsProcessed *prometheus.CounterVec
	RowsEnriched    prometheus.Counter
	RequestAttempts *prometheus.CounterVec
	RequestSeconds  *prometheus.HistogramVec
	PendingAssets   prometheus.Gauge
	ActiveWorkers   prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		AssetsProcessed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "groundhog_assets_processed_total",
			Help: "Total number of assets sent for terrain enrichment.",
		}, []string{"status"}),
		RowsEnriched: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "groundhog_rows_enriched_total",
			Help: "Total number of table rows that received terrain features.",
		}),
		RequestAttempts: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "groundhog_provider_request_attempts_total",
			Help: "Total number of attempts made against the elevation provider, by outcome.",
		}, []string{"outcome"}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "groundhog_provider_request_duration_seconds",
			Help:    "Duration of per-asset lookups against the elevation provider, retries included.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		PendingAssets: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "groundhog_pending_assets",
			Help: "Number of assets picked up by the last poll of the enrichment service.",
		}),
		ActiveWorkers: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "groundhog_active_workers",
			Help: "Number of service workers currently enriching an asset.",
		}),
	}
}
