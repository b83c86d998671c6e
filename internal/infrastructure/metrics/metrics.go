package metrics

import (
	"net/http"
	"time"

	"store-order-hub/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "store_order_hub"

// Recorder implements ports.SyncMetrics on its own registry
type Recorder struct {
	registry     *prometheus.Registry
	syncsTotal   *prometheus.CounterVec
	syncDuration *prometheus.HistogramVec
	probesTotal  *prometheus.CounterVec
}

// NewRecorder creates a Recorder with Go runtime and process collectors registered
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		syncsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "syncs_total",
				Help:      "Store syncs by platform and outcome.",
			},
			[]string{"platform", "outcome"},
		),
		syncDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sync_duration_seconds",
				Help:      "Duration of upstream order fetches in seconds.",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
			},
			[]string{"platform"},
		),
		probesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "connection_probes_total",
				Help:      "Connection probes by platform and resulting status.",
			},
			[]string{"platform", "status"},
		),
	}

	r.registry.MustRegister(
		r.syncsTotal,
		r.syncDuration,
		r.probesTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveSync records one sync attempt
func (r *Recorder) ObserveSync(platform domain.Platform, outcome string, duration time.Duration) {
	r.syncsTotal.WithLabelValues(string(platform), outcome).Inc()
	r.syncDuration.WithLabelValues(string(platform)).Observe(duration.Seconds())
}

// ObserveProbe records one connection probe
func (r *Recorder) ObserveProbe(platform domain.Platform, status domain.ConnectionStatus) {
	r.probesTotal.WithLabelValues(string(platform), string(status)).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
