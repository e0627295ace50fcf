// Package metrics exposes detection-loop counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Detection outcomes.
const (
	OutcomeHand    = "hand"
	OutcomeEmpty   = "empty"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
)

// Metrics holds the loop's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Ticks           prometheus.Counter
	Detections      *prometheus.CounterVec
	FrameErrors     prometheus.Counter
	EffectChanges   prometheus.Counter
	TickDuration    prometheus.Histogram
	DetectDuration  prometheus.Histogram
	LoopState       prometheus.Gauge
	StreamClients   prometheus.Gauge
	GeneratedImages prometheus.Counter
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamfinger_ticks_total",
			Help: "Detection loop ticks.",
		}),
		Detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teamfinger_detections_total",
			Help: "Detection requests by outcome.",
		}, []string{"outcome"}),
		FrameErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamfinger_frame_errors_total",
			Help: "Frames that could not be read from the camera.",
		}),
		EffectChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamfinger_effect_changes_total",
			Help: "Ticks on which the effect engine changed the document.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "teamfinger_tick_duration_seconds",
			Help:    "Wall time of one loop tick.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		DetectDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "teamfinger_detect_duration_seconds",
			Help:    "Wall time of one hand detection request.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		LoopState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "teamfinger_loop_state",
			Help: "Detection loop state (0 uninitialized .. 4 stopped).",
		}),
		StreamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "teamfinger_state_clients",
			Help: "Connected frame-state websocket clients.",
		}),
		GeneratedImages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "teamfinger_generated_images_total",
			Help: "Images produced by the latent generator.",
		}),
	}
	m.registry.MustRegister(
		m.Ticks, m.Detections, m.FrameErrors, m.EffectChanges,
		m.TickDuration, m.DetectDuration, m.LoopState,
		m.StreamClients, m.GeneratedImages,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveDetection records one detection request.
func (m *Metrics) ObserveDetection(outcome string, d time.Duration) {
	m.Detections.WithLabelValues(outcome).Inc()
	if outcome != OutcomeSkipped {
		m.DetectDuration.Observe(d.Seconds())
	}
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
