// Package capture coordinates a camera capture session.
//
// A Coordinator owns one session, its video and audio inputs, a photo output
// and a movie output. Every operation is queued onto a single worker and
// returns at once; nothing else mutates the session or its devices. Results
// and failures are delivered to an EventSink in worker order.
//
// Device settings are only changed between LockForConfiguration and
// UnlockForConfiguration, and an operation requesting a mode the device does
// not support is reported as KindUnsupportedMode without touching the device.
//
// Callers read the session through State, a snapshot published after each
// task.
package capture
