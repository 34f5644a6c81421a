package events

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/camnode/internal/capture"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan RecordingStartedEvent, 1)

	unsub := bus.Subscribe(func(e RecordingStartedEvent) {
		received <- e
	})
	defer unsub()

	event := RecordingStartedEvent{
		Path:      "/tmp/clip.mov",
		Timestamp: "2025-01-27T10:30:00Z",
	}
	bus.Publish(event)

	got := <-received
	if got.Path != event.Path {
		t.Errorf("Expected path %s, got %s", event.Path, got.Path)
	}
}

func TestBus_MultipleSubscribers(_ *testing.T) {
	bus := New()
	received1 := make(chan CameraSwitchEvent, 1)
	received2 := make(chan CameraSwitchEvent, 1)

	unsub1 := bus.Subscribe(func(e CameraSwitchEvent) {
		received1 <- e
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(e CameraSwitchEvent) {
		received2 <- e
	})
	defer unsub2()

	bus.Publish(CameraSwitchEvent{Phase: "did", Position: "front"})

	<-received1
	<-received2
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan CaptureErrorEvent, 1)

	unsub := bus.Subscribe(func(e CaptureErrorEvent) {
		received <- e
	})

	bus.Publish(CaptureErrorEvent{Kind: "SESSION_ERROR"})
	<-received

	unsub()

	bus.Publish(CaptureErrorEvent{Kind: "SESSION_ERROR"})
	select {
	case <-received:
		t.Fatal("Should not have received event after unsubscribe")
	case <-time.After(10 * time.Millisecond):
		// Expected - no event
	}
}

func TestBus_TypeSafety(t *testing.T) {
	bus := New()

	startedReceived := make(chan bool, 1)
	finishedReceived := make(chan bool, 1)

	unsub1 := bus.Subscribe(func(_ RecordingStartedEvent) {
		startedReceived <- true
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(_ RecordingFinishedEvent) {
		finishedReceived <- true
	})
	defer unsub2()

	bus.Publish(RecordingStartedEvent{Path: "a.mov"})
	<-startedReceived

	select {
	case <-finishedReceived:
		t.Fatal("Finished subscriber should NOT have received RecordingStartedEvent")
	case <-time.After(10 * time.Millisecond):
		// Expected
	}

	bus.Publish(RecordingFinishedEvent{Path: "a.mov"})
	<-finishedReceived

	select {
	case <-startedReceived:
		t.Fatal("Started subscriber should NOT have received RecordingFinishedEvent")
	case <-time.After(10 * time.Millisecond):
		// Expected
	}
}

func TestBus_ThreadSafety(_ *testing.T) {
	bus := New()
	var wg sync.WaitGroup
	numGoroutines := 10
	eventsPerGoroutine := 100
	expected := numGoroutines * eventsPerGoroutine

	receivedCh := make(chan bool, expected)

	unsub := bus.Subscribe(func(_ RecordingProgressEvent) {
		receivedCh <- true
	})
	defer unsub()

	for range numGoroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range eventsPerGoroutine {
				bus.Publish(RecordingProgressEvent{
					Path:      "a.mov",
					Timestamp: time.Now().Format(time.RFC3339),
				})
			}
		}()
	}

	wg.Wait()

	for range expected {
		<-receivedCh
	}
}

func TestBus_SubscribeAll(t *testing.T) {
	bus := New()
	received := make(chan Event, 16)

	unsub := bus.SubscribeAll(func(e Event) { received <- e })
	defer unsub()

	all := []Event{
		CaptureErrorEvent{Kind: "UNSUPPORTED_MODE"},
		CameraSwitchEvent{Phase: "will"},
		StillImageEvent{Format: "jpeg"},
		RecordingStartedEvent{Path: "a.mov"},
		RecordingProgressEvent{Path: "a.mov"},
		RecordingFinishedEvent{Path: "a.mov"},
		OrientationChangedEvent{Current: "portrait"},
		SessionStateChangedEvent{},
	}
	for _, e := range all {
		bus.Publish(e)
	}

	seen := map[uint32]bool{}
	for range all {
		select {
		case e := <-received:
			seen[e.Type()] = true
		case <-time.After(time.Second):
			t.Fatal("Timed out waiting for events")
		}
	}
	if len(seen) != len(all) {
		t.Errorf("Expected %d distinct event types, got %d", len(all), len(seen))
	}

	unsub()
	bus.Publish(CaptureErrorEvent{})
	select {
	case <-received:
		t.Fatal("Should not have received event after unsubscribe")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		event Event
		want  string
	}{
		{CaptureErrorEvent{}, "capture-error"},
		{CameraSwitchEvent{}, "camera-switch"},
		{StillImageEvent{}, "still-image"},
		{RecordingStartedEvent{}, "recording-started"},
		{RecordingProgressEvent{}, "recording-progress"},
		{RecordingFinishedEvent{}, "recording-finished"},
		{OrientationChangedEvent{}, "orientation-changed"},
		{SessionStateChangedEvent{}, "session-state-changed"},
	}

	for _, tt := range tests {
		if got := Name(tt.event); got != tt.want {
			t.Errorf("Name(%T) = %s, want %s", tt.event, got, tt.want)
		}
	}
}

func TestSessionStateChangedEventJSON(t *testing.T) {
	dev := capture.Device{ID: "back", Name: "Back Camera", Kind: capture.MediaVideo, Position: capture.PositionBack}
	event := SessionStateChangedEvent{
		State: capture.State{
			ActiveVideoDevice: &dev,
			Preset:            capture.PresetHigh,
			Running:           true,
			Recording:         capture.RecordingIdle,
		},
		Timestamp: "2025-01-27T10:30:00Z",
	}

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var result struct {
		State struct {
			Running           bool   `json:"running"`
			Preset            string `json:"preset"`
			RecordingStarted  any    `json:"recording_started"`
			ActiveVideoDevice struct {
				ID string `json:"id"`
			} `json:"active_video_device"`
		} `json:"state"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if !result.State.Running || result.State.Preset != "high" || result.State.ActiveVideoDevice.ID != "back" {
		t.Errorf("Unexpected state JSON: %s", data)
	}
	if result.State.RecordingStarted != nil {
		t.Errorf("Expected recording_started to be omitted, got %v", result.State.RecordingStarted)
	}
}

func TestSubscribeToChannel(t *testing.T) {
	bus := New()
	ch := make(chan any, 10)

	unsub := SubscribeToChannel[OrientationChangedEvent](bus, ch)
	defer unsub()

	bus.Publish(OrientationChangedEvent{Previous: "landscape-right", Current: "portrait"})

	received := <-ch
	ev, ok := received.(OrientationChangedEvent)
	if !ok {
		t.Fatalf("Expected OrientationChangedEvent, got %T", received)
	}
	if ev.Current != "portrait" {
		t.Errorf("Expected current portrait, got %s", ev.Current)
	}
}

func TestSubscribeToChannel_NonBlocking(_ *testing.T) {
	bus := New()
	ch := make(chan any) // No buffer

	unsub := SubscribeAllToChannel(bus, ch)
	defer unsub()

	done := make(chan bool, 1)
	go func() {
		bus.Publish(RecordingStartedEvent{Path: "a.mov"})
		done <- true
	}()

	<-done // Should complete without blocking
}

func TestSink(t *testing.T) {
	bus := New()
	sink := NewSink(bus)
	sink.now = func() time.Time { return time.Date(2025, 1, 27, 10, 30, 0, 0, time.UTC) }

	errs := make(chan CaptureErrorEvent, 1)
	stills := make(chan StillImageEvent, 1)
	finished := make(chan RecordingFinishedEvent, 1)
	switches := make(chan CameraSwitchEvent, 2)
	defer bus.Subscribe(func(e CaptureErrorEvent) { errs <- e })()
	defer bus.Subscribe(func(e StillImageEvent) { stills <- e })()
	defer bus.Subscribe(func(e RecordingFinishedEvent) { finished <- e })()
	defer bus.Subscribe(func(e CameraSwitchEvent) { switches <- e })()

	sink.OnError(&capture.Error{
		Kind:      capture.KindUnsupportedMode,
		Operation: "set_flash_mode",
		Message:   "flash mode on not supported",
		Cause:     capture.ErrPointNotSupported,
	})
	e := <-errs
	if e.Kind != "UNSUPPORTED_MODE" || e.Operation != "set_flash_mode" || e.Error == "" {
		t.Errorf("Unexpected error event: %+v", e)
	}
	if e.Timestamp != "2025-01-27T10:30:00Z" {
		t.Errorf("Expected fixed timestamp, got %s", e.Timestamp)
	}

	sink.OnStillImage(capture.Image{Data: []byte{1, 2, 3}, Format: "jpeg", Width: 4, Height: 3})
	s := <-stills
	data, err := base64.StdEncoding.DecodeString(s.ImageData)
	if err != nil || len(data) != 3 {
		t.Errorf("Expected base64 image of 3 bytes, got %q (%v)", s.ImageData, err)
	}

	sink.OnRecordingFinished("a.mov", 1500*time.Millisecond, errors.New("disk full"))
	f := <-finished
	if f.DurationSeconds != 1.5 || f.Error != "disk full" {
		t.Errorf("Unexpected finished event: %+v", f)
	}

	sink.OnCameraWillSwitch(capture.PositionBack)
	sink.OnCameraDidSwitch(capture.PositionFront)
	if w := <-switches; w.Phase != "will" || w.Position != "back" {
		t.Errorf("Unexpected will-switch event: %+v", w)
	}
	if d := <-switches; d.Phase != "did" || d.Position != "front" {
		t.Errorf("Unexpected did-switch event: %+v", d)
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{59 * time.Second, "00:00:59"},
		{61 * time.Second, "00:01:01"},
		{3*time.Hour + 25*time.Minute + 7*time.Second, "03:25:07"},
		{-time.Second, "00:00:00"},
	}
	for _, tt := range tests {
		if got := FormatElapsed(tt.d); got != tt.want {
			t.Errorf("FormatElapsed(%v) = %s, want %s", tt.d, got, tt.want)
		}
	}
}
