package capture

import (
	"fmt"
	"slices"
	"strings"
)

// MediaKind distinguishes video from audio capture devices.
type MediaKind string

// Media kinds.
const (
	MediaVideo MediaKind = "video"
	MediaAudio MediaKind = "audio"
)

// Position is the physical placement of a capture device.
type Position string

// Device positions.
const (
	PositionUnspecified Position = "unspecified"
	PositionFront       Position = "front"
	PositionBack        Position = "back"
)

// FocusMode is a focus behavior a device may support.
type FocusMode string

// Focus modes.
const (
	FocusLocked              FocusMode = "locked"
	FocusAuto                FocusMode = "auto"
	FocusContinuousAutoFocus FocusMode = "continuous"
)

// ExposureMode is an exposure behavior a device may support.
type ExposureMode string

// Exposure modes.
const (
	ExposureLocked                 ExposureMode = "locked"
	ExposureAuto                   ExposureMode = "auto"
	ExposureContinuousAutoExposure ExposureMode = "continuous"
)

// FlashMode is a flash setting.
type FlashMode string

// Flash modes.
const (
	FlashOff  FlashMode = "off"
	FlashOn   FlashMode = "on"
	FlashAuto FlashMode = "auto"
)

// TorchMode is a torch setting.
type TorchMode string

// Torch modes.
const (
	TorchOff  TorchMode = "off"
	TorchOn   TorchMode = "on"
	TorchAuto TorchMode = "auto"
)

// ParsePosition parses a position name.
func ParsePosition(s string) (Position, error) {
	switch p := Position(strings.ToLower(s)); p {
	case PositionFront, PositionBack, PositionUnspecified:
		return p, nil
	case "":
		return PositionUnspecified, nil
	}
	return "", fmt.Errorf("unknown position %q", s)
}

// ParseMediaKind parses a media kind name.
func ParseMediaKind(s string) (MediaKind, error) {
	switch k := MediaKind(strings.ToLower(s)); k {
	case MediaVideo, MediaAudio:
		return k, nil
	}
	return "", fmt.Errorf("unknown media kind %q", s)
}

// ParseFocusMode parses a focus mode name.
func ParseFocusMode(s string) (FocusMode, error) {
	switch m := FocusMode(strings.ToLower(s)); m {
	case FocusLocked, FocusAuto, FocusContinuousAutoFocus:
		return m, nil
	}
	return "", fmt.Errorf("unknown focus mode %q", s)
}

// ParseExposureMode parses an exposure mode name.
func ParseExposureMode(s string) (ExposureMode, error) {
	switch m := ExposureMode(strings.ToLower(s)); m {
	case ExposureLocked, ExposureAuto, ExposureContinuousAutoExposure:
		return m, nil
	}
	return "", fmt.Errorf("unknown exposure mode %q", s)
}

// ParseFlashMode parses a flash mode name.
func ParseFlashMode(s string) (FlashMode, error) {
	switch m := FlashMode(strings.ToLower(s)); m {
	case FlashOff, FlashOn, FlashAuto:
		return m, nil
	}
	return "", fmt.Errorf("unknown flash mode %q", s)
}

// ParseTorchMode parses a torch mode name.
func ParseTorchMode(s string) (TorchMode, error) {
	switch m := TorchMode(strings.ToLower(s)); m {
	case TorchOff, TorchOn, TorchAuto:
		return m, nil
	}
	return "", fmt.Errorf("unknown torch mode %q", s)
}

// Capabilities is the set of modes a device supports.
type Capabilities struct {
	FocusModes              []FocusMode    `json:"focus_modes" toml:"focus_modes"`
	ExposureModes           []ExposureMode `json:"exposure_modes" toml:"exposure_modes"`
	FlashModes              []FlashMode    `json:"flash_modes" toml:"flash_modes"`
	TorchModes              []TorchMode    `json:"torch_modes" toml:"torch_modes"`
	FocusPointOfInterest    bool           `json:"focus_point_of_interest" toml:"focus_point_of_interest"`
	ExposurePointOfInterest bool           `json:"exposure_point_of_interest" toml:"exposure_point_of_interest"`
	SmoothAutoFocus         bool           `json:"smooth_auto_focus" toml:"smooth_auto_focus"`
}

// SupportsFocus reports whether mode is in the capability set.
func (c Capabilities) SupportsFocus(mode FocusMode) bool {
	return slices.Contains(c.FocusModes, mode)
}

// SupportsExposure reports whether mode is in the capability set.
func (c Capabilities) SupportsExposure(mode ExposureMode) bool {
	return slices.Contains(c.ExposureModes, mode)
}

// SupportsFlash reports whether mode is in the capability set.
func (c Capabilities) SupportsFlash(mode FlashMode) bool {
	return slices.Contains(c.FlashModes, mode)
}

// SupportsTorch reports whether mode is in the capability set.
func (c Capabilities) SupportsTorch(mode TorchMode) bool {
	return slices.Contains(c.TorchModes, mode)
}

// HasFlash reports whether the device has a flash that can be turned on.
func (c Capabilities) HasFlash() bool {
	return c.SupportsFlash(FlashOn) || c.SupportsFlash(FlashAuto)
}

// HasTorch reports whether the device has a torch that can be turned on.
func (c Capabilities) HasTorch() bool {
	return c.SupportsTorch(TorchOn) || c.SupportsTorch(TorchAuto)
}

// clone returns a deep copy so snapshots never share backing arrays.
func (c Capabilities) clone() Capabilities {
	c.FocusModes = slices.Clone(c.FocusModes)
	c.ExposureModes = slices.Clone(c.ExposureModes)
	c.FlashModes = slices.Clone(c.FlashModes)
	c.TorchModes = slices.Clone(c.TorchModes)
	return c
}

// Device describes one physical capture device. It is an immutable snapshot;
// the live device's current modes are tracked separately.
type Device struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Kind         MediaKind    `json:"kind"`
	Position     Position     `json:"position"`
	Capabilities Capabilities `json:"capabilities"`
}

// Clone returns a deep copy of d.
func (d Device) Clone() Device {
	d.Capabilities = d.Capabilities.clone()
	return d
}

// Modes holds the current mode settings of a live device.
type Modes struct {
	Focus    FocusMode    `json:"focus"`
	Exposure ExposureMode `json:"exposure"`
	Flash    FlashMode    `json:"flash"`
	Torch    TorchMode    `json:"torch"`
}

// Point is a point of interest in normalized coordinates, (0,0) top-left to
// (1,1) bottom-right.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CenterPoint is the middle of the frame.
var CenterPoint = Point{X: 0.5, Y: 0.5}

// Valid reports whether p lies inside the unit square.
func (p Point) Valid() bool {
	return p.X >= 0 && p.X <= 1 && p.Y >= 0 && p.Y <= 1
}

func (p Point) String() string {
	return fmt.Sprintf("(%.3f,%.3f)", p.X, p.Y)
}
