package nats

import (
	"encoding/json"
	"strings"

	"github.com/smazurov/camnode/internal/capture"
	"github.com/smazurov/camnode/internal/events"
)

// DefaultSubjectPrefix is the root of every camnode subject.
const DefaultSubjectPrefix = "camnode"

// Subjects builds the subject names under one prefix.
type Subjects struct {
	Prefix string
}

func (s Subjects) prefix() string {
	if s.Prefix == "" {
		return DefaultSubjectPrefix
	}
	return strings.TrimSuffix(s.Prefix, ".")
}

// Event returns the subject an event is published on, e.g.
// camnode.events.recording-started.
func (s Subjects) Event(name string) string {
	return s.prefix() + ".events." + name
}

// AllEvents matches every event subject.
func (s Subjects) AllEvents() string {
	return s.prefix() + ".events.>"
}

// Control returns the subject that triggers operation, e.g.
// camnode.control.start_recording.
func (s Subjects) Control(operation string) string {
	return s.prefix() + ".control." + operation
}

// AllControls matches every control subject.
func (s Subjects) AllControls() string {
	return s.prefix() + ".control.*"
}

// operation extracts the operation token from a control subject.
func (s Subjects) operation(subject string) string {
	return strings.TrimPrefix(subject, s.prefix()+".control.")
}

// EventMessage is the envelope of a published capture event.
type EventMessage struct {
	SessionID string          `json:"session_id"`
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
}

func newEventMessage(sessionID string, ev events.Event) (EventMessage, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return EventMessage{}, err
	}
	return EventMessage{SessionID: sessionID, Event: events.Name(ev), Data: data}, nil
}

// ControlRequest is the optional payload of a control message. The
// operation itself comes from the subject.
type ControlRequest struct {
	Mode  string         `json:"mode,omitempty"`
	Value string         `json:"value,omitempty"`
	Point *capture.Point `json:"point,omitempty"`
}

// ControlReply answers a control request that carried a reply subject.
// Accepted means queued; the outcome arrives as events.
type ControlReply struct {
	Operation string `json:"operation"`
	Accepted  bool   `json:"accepted"`
	Error     string `json:"error,omitempty"`
}

// Marshal serializes the message to JSON.
func (m ControlReply) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// UnmarshalEvent deserializes an EventMessage from JSON.
func UnmarshalEvent(data []byte) (EventMessage, error) {
	var m EventMessage
	err := json.Unmarshal(data, &m)
	return m, err
}

// UnmarshalControl deserializes a ControlRequest. An empty payload is a
// request without arguments.
func UnmarshalControl(data []byte) (ControlRequest, error) {
	var m ControlRequest
	if len(data) == 0 {
		return m, nil
	}
	err := json.Unmarshal(data, &m)
	return m, err
}

// UnmarshalReply deserializes a ControlReply from JSON.
func UnmarshalReply(data []byte) (ControlReply, error) {
	var m ControlReply
	err := json.Unmarshal(data, &m)
	return m, err
}
