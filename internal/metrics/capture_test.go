package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/smazurov/camnode/internal/capture"
)

func TestOperationCompleted(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.OperationCompleted("start_session", nil)
	m.OperationCompleted("start_session", nil)
	m.OperationCompleted("set_flash_mode", &capture.Error{Kind: capture.KindUnsupportedMode})
	m.OperationCompleted("switch_camera", errors.New("plain"))

	if got := testutil.ToFloat64(m.operations.WithLabelValues("start_session", "ok")); got != 2 {
		t.Errorf("start_session ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.operations.WithLabelValues("set_flash_mode", "error")); got != 1 {
		t.Errorf("set_flash_mode error = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.errors.WithLabelValues("UNSUPPORTED_MODE")); got != 1 {
		t.Errorf("UNSUPPORTED_MODE = %v, want 1", got)
	}
	// Errors without a kind count as session errors.
	if got := testutil.ToFloat64(m.errors.WithLabelValues("SESSION_ERROR")); got != 1 {
		t.Errorf("SESSION_ERROR = %v, want 1", got)
	}
}

func TestQueueObserver(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.QueueDepth(3)
	m.QueueDepth(1)
	m.TaskDone(2 * time.Millisecond)
	m.TaskPanicked("boom")

	if got := testutil.ToFloat64(m.queueDepth); got != 1 {
		t.Errorf("queue depth = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.taskPanics); got != 1 {
		t.Errorf("panics = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.taskDuration); got != 1 {
		t.Errorf("duration series = %d, want 1", got)
	}
}

func TestStateChanged(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.StateChanged(capture.State{Running: true, Recording: capture.RecordingActive})
	if testutil.ToFloat64(m.running) != 1 || testutil.ToFloat64(m.recording) != 1 {
		t.Error("expected running and recording gauges set")
	}

	m.StateChanged(capture.State{Running: true, Recording: capture.RecordingIdle})
	if testutil.ToFloat64(m.recording) != 0 {
		t.Error("expected recording gauge cleared")
	}
	if got := testutil.ToFloat64(m.stateChanges); got != 2 {
		t.Errorf("state changes = %v, want 2", got)
	}
}

func TestConfigurationLock(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ConfigurationLock(capture.LockAcquired)
	m.ConfigurationLock(capture.LockReleased)
	m.ConfigurationLock(capture.LockFailed)
	m.ConfigurationLock(capture.LockAcquired)

	if got := testutil.ToFloat64(m.configLocks.WithLabelValues("acquired")); got != 2 {
		t.Errorf("acquired = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.configLocks.WithLabelValues("failed")); got != 1 {
		t.Errorf("failed = %v, want 1", got)
	}
}

func TestHandler(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.QueueDepth(4)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "camnode_queue_depth 4") {
		t.Errorf("expected camnode_queue_depth in output, got:\n%s", rec.Body.String())
	}
}
