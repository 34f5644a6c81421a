package sim

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
	"github.com/smazurov/camnode/internal/capture"
)

// DeviceProfile describes one simulated device.
type DeviceProfile struct {
	ID           string               `toml:"id,omitempty" json:"id"`
	Name         string               `toml:"name" json:"name"`
	Kind         string               `toml:"kind" json:"kind"`
	Position     string               `toml:"position,omitempty" json:"position,omitempty"`
	Capabilities capture.Capabilities `toml:"capabilities" json:"capabilities"`
}

// Faults switches on failure injection.
type Faults struct {
	LockFailures  []string `toml:"lock_failures,omitempty" json:"lock_failures,omitempty"`   // device ids whose lock always fails
	OpenFailures  []string `toml:"open_failures,omitempty" json:"open_failures,omitempty"`   // device ids that cannot be opened
	RejectInputs  []string `toml:"reject_inputs,omitempty" json:"reject_inputs,omitempty"`   // device ids the session refuses
	StillFailure  bool     `toml:"still_failure,omitempty" json:"still_failure,omitempty"`   // every still capture fails
	RecordFailure bool     `toml:"record_failure,omitempty" json:"record_failure,omitempty"` // the movie output finishes before starting
}

// Profile is the simulated hardware of a host.
type Profile struct {
	Devices     []DeviceProfile `toml:"devices" json:"devices"`
	AdjustDelay string          `toml:"adjust_delay,omitempty" json:"adjust_delay,omitempty"`
	FrameRate   int             `toml:"frame_rate,omitempty" json:"frame_rate,omitempty"`
	Fail        Faults          `toml:"fail" json:"fail"`
}

const (
	defaultAdjustDelay = 300 * time.Millisecond
	defaultFrameRate   = 30
)

// DefaultProfile returns a phone-like host: a fully featured back camera, a
// front camera that only does continuous autofocus, and one microphone.
func DefaultProfile() Profile {
	return Profile{
		AdjustDelay: defaultAdjustDelay.String(),
		FrameRate:   defaultFrameRate,
		Devices: []DeviceProfile{
			{
				ID:       "back-camera",
				Name:     "Back Camera",
				Kind:     string(capture.MediaVideo),
				Position: string(capture.PositionBack),
				Capabilities: capture.Capabilities{
					FocusModes:              []capture.FocusMode{capture.FocusLocked, capture.FocusAuto, capture.FocusContinuousAutoFocus},
					ExposureModes:           []capture.ExposureMode{capture.ExposureLocked, capture.ExposureAuto, capture.ExposureContinuousAutoExposure},
					FlashModes:              []capture.FlashMode{capture.FlashOff, capture.FlashOn, capture.FlashAuto},
					TorchModes:              []capture.TorchMode{capture.TorchOff, capture.TorchOn, capture.TorchAuto},
					FocusPointOfInterest:    true,
					ExposurePointOfInterest: true,
					SmoothAutoFocus:         true,
				},
			},
			{
				ID:       "front-camera",
				Name:     "Front Camera",
				Kind:     string(capture.MediaVideo),
				Position: string(capture.PositionFront),
				Capabilities: capture.Capabilities{
					FocusModes:    []capture.FocusMode{capture.FocusContinuousAutoFocus},
					ExposureModes: []capture.ExposureMode{capture.ExposureContinuousAutoExposure},
					FlashModes:    []capture.FlashMode{capture.FlashOff},
					TorchModes:    []capture.TorchMode{capture.TorchOff},
				},
			},
			{
				ID:   "microphone",
				Name: "Built-in Microphone",
				Kind: string(capture.MediaAudio),
			},
		},
	}
}

// LoadProfile reads a profile from a TOML file. An empty path returns the
// default profile.
func LoadProfile(path string) (Profile, error) {
	if path == "" {
		return DefaultProfile(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to read device profile: %w", err)
	}

	var p Profile
	if err := toml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("failed to parse device profile %s: %w", path, err)
	}
	return p, nil
}

// adjustDelay returns how long exposure takes to settle.
func (p Profile) adjustDelay() (time.Duration, error) {
	if p.AdjustDelay == "" {
		return defaultAdjustDelay, nil
	}
	d, err := time.ParseDuration(p.AdjustDelay)
	if err != nil {
		return 0, fmt.Errorf("invalid adjust_delay %q: %w", p.AdjustDelay, err)
	}
	return d, nil
}

// devices validates the profile and converts it to capture devices. Devices
// without an id get a random one.
func (p Profile) devices() ([]capture.Device, error) {
	out := make([]capture.Device, 0, len(p.Devices))
	seen := make(map[string]bool, len(p.Devices))

	for i, dp := range p.Devices {
		kind, err := capture.ParseMediaKind(dp.Kind)
		if err != nil {
			return nil, fmt.Errorf("device %d: %w", i, err)
		}
		position, err := capture.ParsePosition(dp.Position)
		if err != nil {
			return nil, fmt.Errorf("device %d: %w", i, err)
		}

		id := dp.ID
		if id == "" {
			id = uuid.NewString()
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate device id %q", id)
		}
		seen[id] = true

		name := dp.Name
		if name == "" {
			name = fmt.Sprintf("%s %s", position, kind)
		}

		out = append(out, capture.Device{
			ID:           id,
			Name:         name,
			Kind:         kind,
			Position:     position,
			Capabilities: dp.Capabilities,
		}.Clone())
	}
	return out, nil
}
