package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the detection pipeline collectors.
type Metrics struct {
	registry *prometheus.Registry

	FramesProcessed  *prometheus.CounterVec // by source: image, video, camera
	FramesSkipped    prometheus.Counter
	Detections       *prometheus.CounterVec // by label and model
	ModelLoads       *prometheus.CounterVec // by model
	InferenceSeconds prometheus.Histogram
	ActiveSessions   prometheus.Gauge
}

// New creates a Metrics instance backed by its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		FramesProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "detect_frames_processed_total",
			Help: "Frames classified, by media source",
		}, []string{"source"}),
		FramesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "detect_frames_skipped_total",
			Help: "Video frames dropped because decode or inference failed",
		}),
		Detections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "detect_detections_total",
			Help: "Final verdicts returned, by label and model",
		}, []string{"label", "model"}),
		ModelLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "detect_model_loads_total",
			Help: "Backend loads performed by the registry",
		}, []string{"model"}),
		InferenceSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "detect_inference_duration_seconds",
			Help:    "Wall time of one backend classification call",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "detect_active_camera_sessions",
			Help: "Camera sessions with a live stabilization window",
		}),
	}
}

// Handler exposes the registry for a /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
