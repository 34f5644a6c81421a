package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/camnode/internal/api/models"
	"github.com/smazurov/camnode/internal/capture"
)

// registerCaptureRoutes registers the session read and control routes.
// Mutations answer 202 once queued; results arrive on /api/events.
func (s *Server) registerCaptureRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-capture-state",
		Method:      http.MethodGet,
		Path:        "/api/capture/state",
		Summary:     "Session State",
		Description: "Latest published snapshot of the capture session",
		Tags:        []string{"capture"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.StateResponse, error) {
		return &models.StateResponse{
			Body: models.StateData{
				SessionID: s.capture.ID(),
				State:     s.capture.State(),
				Recorded:  s.capture.RecordedDuration().Seconds(),
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "list-capture-devices",
		Method:      http.MethodGet,
		Path:        "/api/capture/devices",
		Summary:     "List Devices",
		Description: "Video and audio capture devices known to the session",
		Tags:        []string{"capture"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.DevicesResponse, error) {
		reg := s.capture.Registry()
		video := reg.Devices(capture.MediaVideo)
		audio := reg.Devices(capture.MediaAudio)
		return &models.DevicesResponse{
			Body: models.DevicesData{
				Video: video,
				Audio: audio,
				Count: len(video) + len(audio),
			},
		}, nil
	})

	s.registerAction(http.MethodPost, "/api/capture/session/start", "start_session", "Start Session",
		"Start the capture session", s.capture.StartSession)
	s.registerAction(http.MethodPost, "/api/capture/session/stop", "stop_session", "Stop Session",
		"Stop the capture session. An active recording is finished first", s.capture.StopSession)
	s.registerAction(http.MethodPost, "/api/capture/camera/switch", "switch_camera", "Switch Camera",
		"Switch to the next video device position", s.capture.SwitchCamera)
	s.registerAction(http.MethodPost, "/api/capture/reset", "reset_focus_exposure", "Reset Focus and Exposure",
		"Continuous focus and exposure at the frame center", s.capture.ResetFocusAndExposure)
	s.registerAction(http.MethodPost, "/api/capture/photo", "capture_still_image", "Capture Photo",
		"Capture a still image. The JPEG arrives as a still-image event", s.capture.CaptureStillImage)
	s.registerAction(http.MethodPost, "/api/capture/recording/start", "start_recording", "Start Recording",
		"Start recording a movie file", s.capture.StartRecording)
	s.registerAction(http.MethodPost, "/api/capture/recording/stop", "stop_recording", "Stop Recording",
		"Stop the active recording", s.capture.StopRecording)

	huma.Register(s.api, s.controlOperation("set-focus-mode", http.MethodPut, "/api/capture/focus",
		"Set Focus", "Set the focus mode, optionally at a point of interest"),
		func(_ context.Context, input *models.FocusRequest) (*models.AcceptedResponse, error) {
			mode, err := capture.ParseFocusMode(input.Body.Mode)
			if err != nil {
				return nil, huma.Error400BadRequest("invalid focus mode", err)
			}
			s.capture.SetFocusMode(mode, input.Body.Point)
			return s.accepted("set_focus_mode"), nil
		})

	huma.Register(s.api, s.controlOperation("set-exposure-mode", http.MethodPut, "/api/capture/exposure",
		"Set Exposure", "Set the exposure mode, optionally at a point of interest"),
		func(_ context.Context, input *models.ExposureRequest) (*models.AcceptedResponse, error) {
			mode, err := capture.ParseExposureMode(input.Body.Mode)
			if err != nil {
				return nil, huma.Error400BadRequest("invalid exposure mode", err)
			}
			s.capture.SetExposureMode(mode, input.Body.Point)
			return s.accepted("set_exposure_mode"), nil
		})

	huma.Register(s.api, s.controlOperation("set-flash-mode", http.MethodPut, "/api/capture/flash",
		"Set Flash", "Set the flash mode used for still images"),
		func(_ context.Context, input *models.FlashRequest) (*models.AcceptedResponse, error) {
			mode, err := capture.ParseFlashMode(input.Body.Mode)
			if err != nil {
				return nil, huma.Error400BadRequest("invalid flash mode", err)
			}
			s.capture.SetFlashMode(mode)
			return s.accepted("set_flash_mode"), nil
		})

	huma.Register(s.api, s.controlOperation("set-torch-mode", http.MethodPut, "/api/capture/torch",
		"Set Torch", "Set the torch mode"),
		func(_ context.Context, input *models.TorchRequest) (*models.AcceptedResponse, error) {
			mode, err := capture.ParseTorchMode(input.Body.Mode)
			if err != nil {
				return nil, huma.Error400BadRequest("invalid torch mode", err)
			}
			s.capture.SetTorchMode(mode)
			return s.accepted("set_torch_mode"), nil
		})

	huma.Register(s.api, s.controlOperation("set-preset", http.MethodPut, "/api/capture/preset",
		"Set Preset", "Set the session quality preset"),
		func(_ context.Context, input *models.PresetRequest) (*models.AcceptedResponse, error) {
			preset, err := capture.ParsePreset(input.Body.Preset)
			if err != nil {
				return nil, huma.Error400BadRequest("invalid preset", err)
			}
			s.capture.SetPreset(preset)
			return s.accepted("set_preset"), nil
		})

	huma.Register(s.api, s.controlOperation("set-orientation", http.MethodPut, "/api/capture/orientation",
		"Set Orientation", "Set the orientation applied to stills and recordings"),
		func(_ context.Context, input *models.OrientationRequest) (*models.AcceptedResponse, error) {
			o, err := capture.ParseOrientation(input.Body.Orientation)
			if err != nil {
				return nil, huma.Error400BadRequest("invalid orientation", err)
			}
			s.capture.SetOrientation(o)
			return s.accepted("set_orientation"), nil
		})
}

func (s *Server) controlOperation(id, method, path, summary, description string) huma.Operation {
	return huma.Operation{
		OperationID:   id,
		Method:        method,
		Path:          path,
		Summary:       summary,
		Description:   description,
		Tags:          []string{"capture"},
		Security:      withAuth(),
		DefaultStatus: http.StatusAccepted,
		Errors:        []int{400, 401, 422},
	}
}

// registerAction registers a body-less control route that calls fn.
func (s *Server) registerAction(method, path, operation, summary, description string, fn func()) {
	id := strings.ReplaceAll(operation, "_", "-")
	huma.Register(s.api, s.controlOperation(id, method, path, summary, description),
		func(_ context.Context, _ *struct{}) (*models.AcceptedResponse, error) {
			fn()
			return s.accepted(operation), nil
		})
}

func (s *Server) accepted(operation string) *models.AcceptedResponse {
	return &models.AcceptedResponse{
		Body: models.AcceptedData{
			Operation: operation,
			SessionID: s.capture.ID(),
		},
	}
}
