package browse

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "m3ucat_http_requests_total",
		Help: "HTTP requests served, by route and status code.",
	}, []string{"path", "code"})

	searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "m3ucat_search_duration_seconds",
		Help:    "Wall time per catalog search.",
		Buckets: prometheus.DefBuckets,
	})

	catalogEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "m3ucat_catalog_entries",
		Help: "Playable entries in the published catalog.",
	})

	refreshRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "m3ucat_refresh_runs_total",
		Help: "Refresh cycles by outcome: ok, not_modified, unchanged, error.",
	}, []string{"result"})

	refreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "m3ucat_refresh_duration_seconds",
		Help:    "Wall time per full catalog rebuild.",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 180},
	})
)
