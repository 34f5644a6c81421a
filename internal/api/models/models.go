// Package models holds the request and response bodies of the HTTP API.
package models

import (
	"github.com/smazurov/camnode/internal/capture"
	"github.com/smazurov/camnode/internal/logging"
	"github.com/smazurov/camnode/internal/version"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

type VersionResponse struct {
	Body version.Info
}

// Capture models
type StateData struct {
	SessionID string        `json:"session_id" example:"0b5c3a52-5f3e-4ad4-9a41-6b0f3c1f7e2d" doc:"Coordinator identity"`
	State     capture.State `json:"state" doc:"Published session snapshot"`
	Recorded  float64       `json:"recorded_seconds" example:"12.5" doc:"Duration of the current recording"`
}

type StateResponse struct {
	Body StateData
}

type DevicesData struct {
	Video []capture.Device `json:"video" doc:"Video capture devices"`
	Audio []capture.Device `json:"audio" doc:"Audio capture devices"`
	Count int              `json:"count" example:"3" doc:"Total number of devices"`
}

type DevicesResponse struct {
	Body DevicesData
}

// AcceptedData acknowledges that an operation was queued. Its outcome is
// delivered on the event stream.
type AcceptedData struct {
	Operation string `json:"operation" example:"start_recording" doc:"Queued operation"`
	SessionID string `json:"session_id" doc:"Coordinator identity"`
}

type AcceptedResponse struct {
	Body AcceptedData
}

type FocusRequest struct {
	Body struct {
		Mode  string         `json:"mode" example:"auto" doc:"Focus mode: locked, auto or continuous"`
		Point *capture.Point `json:"point,omitempty" doc:"Optional point of interest in normalized coordinates"`
	}
}

type ExposureRequest struct {
	Body struct {
		Mode  string         `json:"mode" example:"continuous" doc:"Exposure mode: locked, auto or continuous. Locked with a point locks once the device settles"`
		Point *capture.Point `json:"point,omitempty" doc:"Optional point of interest in normalized coordinates"`
	}
}

type FlashRequest struct {
	Body struct {
		Mode string `json:"mode" example:"auto" doc:"Flash mode: off, on or auto"`
	}
}

type TorchRequest struct {
	Body struct {
		Mode string `json:"mode" example:"on" doc:"Torch mode: off, on or auto"`
	}
}

type PresetRequest struct {
	Body struct {
		Preset string `json:"preset" example:"1920x1080" doc:"Session preset"`
	}
}

type OrientationRequest struct {
	Body struct {
		Orientation string `json:"orientation" example:"portrait" doc:"Video orientation"`
	}
}

// Log models
type LogsRequest struct {
	Module string `query:"module" example:"capture" doc:"Only entries from this module"`
	Level  string `query:"level" example:"warn" doc:"Minimum level"`
	Limit  int    `query:"limit" minimum:"0" example:"100" doc:"Return at most this many of the newest entries; 0 for all"`
}

type LogsData struct {
	Entries []logging.Entry `json:"entries" doc:"Log entries, oldest first"`
	Count   int             `json:"count" doc:"Number of entries returned"`
}

type LogsResponse struct {
	Body LogsData
}
