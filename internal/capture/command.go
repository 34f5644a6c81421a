package capture

import (
	"errors"
	"fmt"
)

// Controller is the mutating surface of a Coordinator. Every method only
// enqueues; outcomes arrive through the EventSink.
type Controller interface {
	StartSession()
	StopSession()
	SwitchCamera()
	SetFocusMode(mode FocusMode, p *Point)
	FocusAtPoint(p Point)
	SetExposureMode(mode ExposureMode, p *Point)
	ExposeAtPoint(p Point)
	SetFlashMode(mode FlashMode)
	SetTorchMode(mode TorchMode)
	ResetFocusAndExposure()
	SetPreset(p Preset)
	SetOrientation(o Orientation)
	CaptureStillImage()
	StartRecording()
	StopRecording()
}

var _ Controller = (*Coordinator)(nil)

// ErrUnknownOperation is returned by Dispatch for an unrecognized name.
var ErrUnknownOperation = errors.New("unknown operation")

// Command is a serialized Controller call, as received over a message bus.
type Command struct {
	Operation string `json:"operation"`
	Mode      string `json:"mode,omitempty"`
	Value     string `json:"value,omitempty"`
	Point     *Point `json:"point,omitempty"`
}

// Operations lists the names Dispatch accepts.
var Operations = []string{
	"start_session",
	"stop_session",
	"switch_camera",
	"set_focus_mode",
	"focus_at_point",
	"set_exposure_mode",
	"expose_at_point",
	"set_flash_mode",
	"set_torch_mode",
	"reset_focus_exposure",
	"set_preset",
	"set_orientation",
	"capture_still_image",
	"start_recording",
	"stop_recording",
}

// Dispatch validates cmd and submits it to ctl. Only malformed commands
// fail here; a well-formed command the device cannot honor is reported
// later through the sink.
func Dispatch(ctl Controller, cmd Command) error {
	switch cmd.Operation {
	case "start_session":
		ctl.StartSession()
	case "stop_session":
		ctl.StopSession()
	case "switch_camera":
		ctl.SwitchCamera()
	case "set_focus_mode":
		mode, err := ParseFocusMode(cmd.Mode)
		if err != nil {
			return err
		}
		ctl.SetFocusMode(mode, cmd.Point)
	case "focus_at_point":
		if cmd.Point == nil {
			return fmt.Errorf("%s: point required", cmd.Operation)
		}
		ctl.FocusAtPoint(*cmd.Point)
	case "set_exposure_mode":
		mode, err := ParseExposureMode(cmd.Mode)
		if err != nil {
			return err
		}
		ctl.SetExposureMode(mode, cmd.Point)
	case "expose_at_point":
		if cmd.Point == nil {
			return fmt.Errorf("%s: point required", cmd.Operation)
		}
		ctl.ExposeAtPoint(*cmd.Point)
	case "set_flash_mode":
		mode, err := ParseFlashMode(cmd.Mode)
		if err != nil {
			return err
		}
		ctl.SetFlashMode(mode)
	case "set_torch_mode":
		mode, err := ParseTorchMode(cmd.Mode)
		if err != nil {
			return err
		}
		ctl.SetTorchMode(mode)
	case "reset_focus_exposure":
		ctl.ResetFocusAndExposure()
	case "set_preset":
		preset, err := ParsePreset(cmd.Value)
		if err != nil {
			return err
		}
		ctl.SetPreset(preset)
	case "set_orientation":
		o, err := ParseOrientation(cmd.Value)
		if err != nil {
			return err
		}
		ctl.SetOrientation(o)
	case "capture_still_image":
		ctl.CaptureStillImage()
	case "start_recording":
		ctl.StartRecording()
	case "stop_recording":
		ctl.StopRecording()
	default:
		return fmt.Errorf("%w %q", ErrUnknownOperation, cmd.Operation)
	}
	return nil
}
