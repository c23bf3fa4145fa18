// Package metrics exports engine activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/specialistvlad/linesim/internal/model"
	"github.com/specialistvlad/linesim/internal/station"
)

const namespace = "linesim"

// Recorder implements engine.Recorder on a private registry, so several
// engines in one process (tests included) never collide.
type Recorder struct {
	registry *prometheus.Registry

	generated *prometheus.CounterVec
	rejected  *prometheus.CounterVec
	completed *prometheus.CounterVec
	dropped   *prometheus.CounterVec
	service   *prometheus.HistogramVec
	depth     *prometheus.GaugeVec
	busy      *prometheus.GaugeVec
	history   prometheus.Gauge
}

// New builds a Recorder with Go runtime and process collectors attached.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		generated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_generated_total",
			Help:      "Units accepted by the entry buffer.",
		}, []string{"buffer"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_rejected_total",
			Help:      "Generated units refused by a full entry buffer.",
		}, []string{"buffer"}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_completed_total",
			Help:      "Units a station finished processing.",
		}, []string{"station"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_dropped_total",
			Help:      "Units a station discarded.",
		}, []string{"station", "reason"}),
		service: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "service_seconds",
			Help:      "Service time drawn for completed units.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"station"}),
		depth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "buffer_units",
			Help:      "Units waiting in a buffer at the last snapshot.",
		}, []string{"buffer"}),
		busy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "station_processing",
			Help:      "1 while a station holds a unit at the last snapshot.",
		}, []string{"station"}),
		history: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "history_snapshots",
			Help:      "Snapshots retained for replay.",
		}),
	}
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.generated, r.rejected, r.completed, r.dropped,
		r.service, r.depth, r.busy, r.history,
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Recorder) Generated(bufferID string) {
	r.generated.WithLabelValues(bufferID).Inc()
}

func (r *Recorder) Rejected(bufferID string) {
	r.rejected.WithLabelValues(bufferID).Inc()
}

func (r *Recorder) Completed(stationID string, service time.Duration) {
	r.completed.WithLabelValues(stationID).Inc()
	r.service.WithLabelValues(stationID).Observe(service.Seconds())
}

func (r *Recorder) Dropped(stationID string, reason station.DropReason) {
	r.dropped.WithLabelValues(stationID, string(reason)).Inc()
}

// Captured refreshes the per-entity gauges from a snapshot. Series for
// entities that no longer exist are removed.
func (r *Recorder) Captured(s *model.Snapshot, historyLen int) {
	r.history.Set(float64(historyLen))

	r.depth.Reset()
	for _, b := range s.Buffers {
		r.depth.WithLabelValues(b.ID).Set(float64(b.Size))
	}
	r.busy.Reset()
	for _, st := range s.Stations {
		v := 0.0
		if st.Processing {
			v = 1
		}
		r.busy.WithLabelValues(st.ID).Set(v)
	}
}
