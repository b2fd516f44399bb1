package metrics

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"helmetwatch/internal/model"
)

// Metrics holds the pipeline counters and their Prometheus collectors.
type Metrics struct {
	FramesRead        atomic.Uint64
	DetectorFailures  atomic.Uint64
	ClipsWritten      atomic.Uint64
	ClipWriteFailures atomic.Uint64
	RecordingActive   atomic.Uint64 // 0 = idle, 1 = recording
	BufferedFrames    atomic.Int64

	violations *prometheus.CounterVec
	registry   *prometheus.Registry
}

// New creates a Metrics instance on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		violations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "helmetwatch_violations_total",
				Help: "Violations flagged, by kind",
			},
			[]string{"kind"},
		),
	}

	m.registerPrometheusMetrics()
	return m
}

func (m *Metrics) registerPrometheusMetrics() {
	m.registry.MustRegister(m.violations)

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "helmetwatch_frames_read_total",
			Help: "Frames read from the camera",
		},
		func() float64 { return float64(m.FramesRead.Load()) },
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "helmetwatch_detector_failures_total",
			Help: "Frames the detector could not process",
		},
		func() float64 { return float64(m.DetectorFailures.Load()) },
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "helmetwatch_clips_written_total",
			Help: "Violation clips finalized",
		},
		func() float64 { return float64(m.ClipsWritten.Load()) },
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "helmetwatch_clip_write_failures_total",
			Help: "Clips that failed to open, write or close",
		},
		func() float64 { return float64(m.ClipWriteFailures.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "helmetwatch_recording_active",
			Help: "Recording active (0=idle, 1=recording)",
		},
		func() float64 { return float64(m.RecordingActive.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "helmetwatch_pre_event_buffered_frames",
			Help: "Frames held in the pre-event buffer",
		},
		func() float64 { return float64(m.BufferedFrames.Load()) },
	))
}

// ObserveViolation counts one violation of kind.
func (m *Metrics) ObserveViolation(kind model.ViolationKind) {
	m.violations.WithLabelValues(string(kind)).Inc()
}

// SetRecording flips the recording gauge.
func (m *Metrics) SetRecording(active bool) {
	if active {
		m.RecordingActive.Store(1)
		return
	}
	m.RecordingActive.Store(0)
}

// Handler returns the Prometheus HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
