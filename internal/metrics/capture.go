// Package metrics provides Prometheus metrics for the capture worker and
// coordinator.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smazurov/camnode/internal/capture"
	"github.com/smazurov/camnode/internal/queue"
)

// Capture holds the capture metrics. It implements queue.Observer and
// capture.Instrumentation.
type Capture struct {
	gatherer prometheus.Gatherer

	queueDepth    prometheus.Gauge
	taskDuration  prometheus.Histogram
	taskPanics    prometheus.Counter
	operations    *prometheus.CounterVec
	errors        *prometheus.CounterVec
	configLocks   *prometheus.CounterVec
	recording     prometheus.Gauge
	running       prometheus.Gauge
	stateChanges  prometheus.Counter
	lastOperation prometheus.Gauge
}

var (
	_ queue.Observer          = (*Capture)(nil)
	_ capture.Instrumentation = (*Capture)(nil)
)

// New registers the capture metrics with reg. A nil reg registers with the
// default registry.
func New(reg prometheus.Registerer) *Capture {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer, ok := reg.(prometheus.Gatherer)
	if !ok {
		gatherer = prometheus.DefaultGatherer
	}
	factory := promauto.With(reg)

	return &Capture{
		gatherer: gatherer,
		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "camnode",
			Subsystem: "queue",
			Name:      "depth",
			Help:      "Tasks waiting on the capture worker",
		}),
		taskDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "camnode",
			Subsystem: "queue",
			Name:      "task_duration_seconds",
			Help:      "Time spent running one capture worker task",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}),
		taskPanics: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "camnode",
			Subsystem: "queue",
			Name:      "panics_total",
			Help:      "Capture worker tasks that panicked",
		}),
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "camnode",
			Subsystem: "capture",
			Name:      "operations_total",
			Help:      "Capture operations applied, by result",
		}, []string{"operation", "result"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "camnode",
			Subsystem: "capture",
			Name:      "errors_total",
			Help:      "Capture errors reported, by kind",
		}, []string{"kind"}),
		configLocks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "camnode",
			Subsystem: "capture",
			Name:      "config_locks_total",
			Help:      "Device configuration lock transitions",
		}, []string{"phase"}),
		recording: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "camnode",
			Subsystem: "capture",
			Name:      "recording",
			Help:      "1 while a recording is being written",
		}),
		running: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "camnode",
			Subsystem: "capture",
			Name:      "running",
			Help:      "1 while the capture session is running",
		}),
		stateChanges: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "camnode",
			Subsystem: "capture",
			Name:      "state_changes_total",
			Help:      "Published session state changes",
		}),
		lastOperation: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "camnode",
			Subsystem: "capture",
			Name:      "last_operation_timestamp_seconds",
			Help:      "Unix time of the last applied operation",
		}),
	}
}

// QueueDepth implements queue.Observer.
func (m *Capture) QueueDepth(n int) {
	m.queueDepth.Set(float64(n))
}

// TaskDone implements queue.Observer.
func (m *Capture) TaskDone(d time.Duration) {
	m.taskDuration.Observe(d.Seconds())
}

// TaskPanicked implements queue.Observer.
func (m *Capture) TaskPanicked(any) {
	m.taskPanics.Inc()
}

// OperationCompleted implements capture.Instrumentation.
func (m *Capture) OperationCompleted(operation string, err error) {
	m.lastOperation.SetToCurrentTime()
	if err == nil {
		m.operations.WithLabelValues(operation, "ok").Inc()
		return
	}
	m.operations.WithLabelValues(operation, "error").Inc()

	kind := capture.KindOf(err)
	if kind == "" {
		kind = capture.KindSessionError
	}
	m.errors.WithLabelValues(string(kind)).Inc()
}

// ConfigurationLock implements capture.Instrumentation.
func (m *Capture) ConfigurationLock(event capture.LockEvent) {
	m.configLocks.WithLabelValues(string(event)).Inc()
}

// StateChanged implements capture.Instrumentation.
func (m *Capture) StateChanged(s capture.State) {
	m.stateChanges.Inc()
	m.running.Set(boolToFloat(s.Running))
	m.recording.Set(boolToFloat(s.IsRecording()))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Capture) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
