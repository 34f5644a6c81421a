// Package nats exposes the capture coordinator over NATS.
//
// The serve command either embeds a server (Server) or dials an external
// one (Connect). Two components run on the connection:
//
//   - Publisher forwards every event from the event bus.
//   - Controller turns control messages into coordinator operations.
//
// # Subjects
//
//	camnode.events.{event}        # capture events, e.g. recording-started
//	camnode.control.{operation}   # operations, e.g. start_recording
//
// The camnode prefix is configurable. Control payloads are optional JSON:
//
//	{"mode": "continuous", "value": "", "point": {"x": 0.5, "y": 0.5}}
//
// A control message sent as a request gets a ControlReply. Accepted only
// means the operation was queued; its outcome is published as events.
//
// # Debugging with nats CLI
//
//	nats sub "camnode.events.>"
//	nats req camnode.control.start_session ''
//	nats req camnode.control.set_focus_mode '{"mode":"auto"}'
//	nats req camnode.control.focus_at_point '{"point":{"x":0.2,"y":0.8}}'
package nats
