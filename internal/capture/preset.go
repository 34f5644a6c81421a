package capture

import (
	"fmt"
	"strings"
)

// Preset is a session quality/resolution preset.
type Preset string

// Session presets.
const (
	PresetPhoto          Preset = "photo"
	PresetHigh           Preset = "high"
	PresetMedium         Preset = "medium"
	PresetLow            Preset = "low"
	Preset352x288        Preset = "352x288"
	Preset640x480        Preset = "640x480"
	Preset1280x720       Preset = "1280x720"
	Preset1920x1080      Preset = "1920x1080"
	Preset3840x2160      Preset = "3840x2160"
	PresetIFrame960x540  Preset = "iframe960x540"
	PresetIFrame1280x720 Preset = "iframe1280x720"
	PresetInputPriority  Preset = "input-priority"
)

var presetSizes = map[Preset][2]int{
	PresetPhoto:          {4032, 3024},
	PresetHigh:           {1920, 1080},
	PresetMedium:         {640, 480},
	PresetLow:            {192, 144},
	Preset352x288:        {352, 288},
	Preset640x480:        {640, 480},
	Preset1280x720:       {1280, 720},
	Preset1920x1080:      {1920, 1080},
	Preset3840x2160:      {3840, 2160},
	PresetIFrame960x540:  {960, 540},
	PresetIFrame1280x720: {1280, 720},
	PresetInputPriority:  {1920, 1080},
}

// ParsePreset parses a preset name.
func ParsePreset(s string) (Preset, error) {
	p := Preset(strings.ToLower(s))
	if _, ok := presetSizes[p]; !ok {
		return "", fmt.Errorf("unknown preset %q", s)
	}
	return p, nil
}

// Dimensions returns the nominal frame size of the preset.
// Input-priority follows the active format; the High size is reported.
func (p Preset) Dimensions() (width, height int) {
	size, ok := presetSizes[p]
	if !ok {
		size = presetSizes[PresetHigh]
	}
	return size[0], size[1]
}

// Presets lists every known preset.
func Presets() []Preset {
	return []Preset{
		PresetPhoto, PresetHigh, PresetMedium, PresetLow,
		Preset352x288, Preset640x480, Preset1280x720, Preset1920x1080, Preset3840x2160,
		PresetIFrame960x540, PresetIFrame1280x720, PresetInputPriority,
	}
}
