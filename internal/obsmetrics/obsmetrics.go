// Package obsmetrics exposes Prometheus counters and histograms for the
// interpreter's own activity: request-rate/latency/error counters and
// runtime gauges retargeted from HTTP request metrics to script-run
// metrics, where a native call stands in for a request and a collector
// sweep is tracked as its own concern.
package obsmetrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every collector registered for one process.
type Metrics struct {
	nativeCallsTotal   *prometheus.CounterVec
	nativeCallErrors   *prometheus.CounterVec
	nativeCallDuration *prometheus.HistogramVec

	exceptionsThrown *prometheus.CounterVec

	collectorSweeps   prometheus.Counter
	collectorReleased prometheus.Counter
	collectorDuration prometheus.Histogram

	goroutines  prometheus.Gauge
	memoryAlloc prometheus.Gauge

	registry *prometheus.Registry
}

// Config namespaces every metric this package registers.
type Config struct {
	Namespace string
}

func DefaultConfig() Config { return Config{Namespace: "asteria"} }

// New creates and registers every metric against a fresh registry, so
// a test can build one without colliding with the process-wide default.
func New(cfg Config) *Metrics {
	if cfg.Namespace == "" {
		cfg = DefaultConfig()
	}
	registry := prometheus.NewRegistry()
	m := &Metrics{registry: registry}

	m.nativeCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: "native",
		Name:      "calls_total",
		Help:      "Total number of natives/* invocations by module and verb.",
	}, []string{"module", "verb"})

	m.nativeCallErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: "native",
		Name:      "call_errors_total",
		Help:      "Total number of natives/* invocations that returned an error.",
	}, []string{"module", "verb"})

	m.nativeCallDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: "native",
		Name:      "call_duration_seconds",
		Help:      "Latency of natives/* invocations in seconds.",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"module", "verb"})

	m.exceptionsThrown = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Name:      "exceptions_thrown_total",
		Help:      "Total number of exceptions thrown, by whether they were caught.",
	}, []string{"caught"})

	m.collectorSweeps = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: "collector",
		Name:      "sweeps_total",
		Help:      "Total number of mark-and-sweep collection passes run.",
	})

	m.collectorReleased = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: "collector",
		Name:      "variables_released_total",
		Help:      "Total number of unreachable variables released across all sweeps.",
	})

	m.collectorDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: "collector",
		Name:      "sweep_duration_seconds",
		Help:      "Latency of a single collection pass in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	m.goroutines = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: cfg.Namespace,
		Subsystem: "runtime",
		Name:      "goroutines",
		Help:      "Number of goroutines currently running.",
	})

	m.memoryAlloc = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: cfg.Namespace,
		Subsystem: "runtime",
		Name:      "memory_alloc_bytes",
		Help:      "Bytes allocated and still in use.",
	})

	registry.MustRegister(
		m.nativeCallsTotal, m.nativeCallErrors, m.nativeCallDuration,
		m.exceptionsThrown,
		m.collectorSweeps, m.collectorReleased, m.collectorDuration,
		m.goroutines, m.memoryAlloc,
	)
	return m
}

// Registry exposes the underlying registry for wiring into promhttp.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveNativeCall records one natives/* invocation's outcome and latency.
func (m *Metrics) ObserveNativeCall(module, verb string, seconds float64, err error) {
	m.nativeCallsTotal.WithLabelValues(module, verb).Inc()
	m.nativeCallDuration.WithLabelValues(module, verb).Observe(seconds)
	if err != nil {
		m.nativeCallErrors.WithLabelValues(module, verb).Inc()
	}
}

// ObserveException records a thrown exception, labeled by whether a
// catch clause handled it.
func (m *Metrics) ObserveException(caught bool) {
	label := "false"
	if caught {
		label = "true"
	}
	m.exceptionsThrown.WithLabelValues(label).Inc()
}

// ObserveSweep records one collector pass.
func (m *Metrics) ObserveSweep(seconds float64, released int) {
	m.collectorSweeps.Inc()
	m.collectorDuration.Observe(seconds)
	m.collectorReleased.Add(float64(released))
}

// SampleRuntime refreshes the goroutine/memory gauges from runtime stats.
// Callers poll this on a timer; it is not wired into the hot path.
func (m *Metrics) SampleRuntime() {
	m.goroutines.Set(float64(runtime.NumGoroutine()))
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.memoryAlloc.Set(float64(ms.Alloc))
}
