// internal/monitoring/metrics.go
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run states reported by the run_state gauge.
const (
	StateIdle        = "idle"
	StateNavigating  = "navigating"
	StateAdvancing   = "advancing"
	StateTearingDown = "tearing_down"
	StateFinished    = "finished"
)

var runStates = []string{StateIdle, StateNavigating, StateAdvancing, StateTearingDown, StateFinished}

// MetricsManager manages Prometheus metrics for scormrunner. Every method is
// safe to call on a nil manager, which records nothing.
type MetricsManager struct {
	registry *prometheus.Registry

	waitsTotal     *prometheus.CounterVec
	waitDuration   *prometheus.HistogramVec
	clicksTotal    *prometheus.CounterVec
	cyclesTotal    prometheus.Counter
	frameSwitches  *prometheus.CounterVec
	windowSwitches prometheus.Counter
	errorsTotal    *prometheus.CounterVec
	runState       *prometheus.GaugeVec
	runStarted     prometheus.Gauge

	namespace string
	subsystem string
}

// MetricsConfig configuration for metrics
type MetricsConfig struct {
	Namespace       string `json:"namespace"`
	Subsystem       string `json:"subsystem"`
	EnableGoMetrics bool   `json:"enable_go_metrics"`
}

// NewMetricsManager creates a new metrics manager with its own registry
func NewMetricsManager(config MetricsConfig) *MetricsManager {
	if config.Namespace == "" {
		config.Namespace = "scormrunner"
	}
	if config.Subsystem == "" {
		config.Subsystem = "player"
	}

	mm := &MetricsManager{
		registry:  prometheus.NewRegistry(),
		namespace: config.Namespace,
		subsystem: config.Subsystem,
	}

	if config.EnableGoMetrics {
		mm.registry.MustRegister(collectors.NewGoCollector())
		mm.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	mm.initializeMetrics()

	return mm
}

// initializeMetrics initializes all Prometheus metrics
func (mm *MetricsManager) initializeMetrics() {
	factory := promauto.With(mm.registry)

	mm.waitsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: mm.namespace,
			Subsystem: mm.subsystem,
			Name:      "element_waits_total",
			Help:      "Element waits by locator strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	mm.waitDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: mm.namespace,
			Subsystem: mm.subsystem,
			Name:      "element_wait_duration_seconds",
			Help:      "Time spent waiting for elements",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
		[]string{"strategy"},
	)

	mm.clicksTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: mm.namespace,
			Subsystem: mm.subsystem,
			Name:      "clicks_total",
			Help:      "Clicks issued, by run phase",
		},
		[]string{"phase"},
	)

	mm.cyclesTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: mm.namespace,
			Subsystem: mm.subsystem,
			Name:      "advance_cycles_total",
			Help:      "Completed click-and-pause cycles of the advance loop",
		},
	)

	mm.frameSwitches = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: mm.namespace,
			Subsystem: mm.subsystem,
			Name:      "frame_switches_total",
			Help:      "Frame context switches by direction",
		},
		[]string{"direction"},
	)

	mm.windowSwitches = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: mm.namespace,
			Subsystem: mm.subsystem,
			Name:      "window_switches_total",
			Help:      "Window focus switches",
		},
	)

	mm.errorsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: mm.namespace,
			Subsystem: mm.subsystem,
			Name:      "errors_total",
			Help:      "Run failures by kind",
		},
		[]string{"kind"},
	)

	mm.runState = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: mm.namespace,
			Subsystem: mm.subsystem,
			Name:      "run_state",
			Help:      "1 for the current run state, 0 otherwise",
		},
		[]string{"state"},
	)

	mm.runStarted = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: mm.namespace,
			Subsystem: mm.subsystem,
			Name:      "run_start_timestamp_seconds",
			Help:      "Unix time the run started",
		},
	)

	mm.SetRunState(StateIdle)
}

// ObserveWait records one element wait
func (mm *MetricsManager) ObserveWait(strategy, outcome string, d time.Duration) {
	if mm == nil {
		return
	}
	mm.waitsTotal.WithLabelValues(strategy, outcome).Inc()
	mm.waitDuration.WithLabelValues(strategy).Observe(d.Seconds())
}

// IncClick records a click in the given phase ("navigation" or "advance")
func (mm *MetricsManager) IncClick(phase string) {
	if mm == nil {
		return
	}
	mm.clicksTotal.WithLabelValues(phase).Inc()
}

// IncCycle records a completed advance cycle
func (mm *MetricsManager) IncCycle() {
	if mm == nil {
		return
	}
	mm.cyclesTotal.Inc()
}

// IncFrameSwitch records a frame switch ("enter" or "exit")
func (mm *MetricsManager) IncFrameSwitch(direction string) {
	if mm == nil {
		return
	}
	mm.frameSwitches.WithLabelValues(direction).Inc()
}

// IncWindowSwitch records a window focus change
func (mm *MetricsManager) IncWindowSwitch() {
	if mm == nil {
		return
	}
	mm.windowSwitches.Inc()
}

// IncError records a failure of the given kind
func (mm *MetricsManager) IncError(kind string) {
	if mm == nil {
		return
	}
	mm.errorsTotal.WithLabelValues(kind).Inc()
}

// SetRunState marks state as the current run state
func (mm *MetricsManager) SetRunState(state string) {
	if mm == nil {
		return
	}
	for _, s := range runStates {
		value := 0.0
		if s == state {
			value = 1
		}
		mm.runState.WithLabelValues(s).Set(value)
	}
}

// MarkRunStarted records the run start time
func (mm *MetricsManager) MarkRunStarted(t time.Time) {
	if mm == nil {
		return
	}
	mm.runStarted.Set(float64(t.Unix()))
}

// Registry exposes the underlying registry, mainly for tests
func (mm *MetricsManager) Registry() *prometheus.Registry {
	if mm == nil {
		return nil
	}
	return mm.registry
}

// MetricsHandler returns an HTTP handler for metrics endpoint
func (mm *MetricsManager) MetricsHandler() http.Handler {
	if mm == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(mm.registry, promhttp.HandlerOpts{Registry: mm.registry})
}
