package capture

import (
	"fmt"
	"strings"
)

// Orientation is the video orientation applied to still images and movies.
type Orientation string

// Video orientations.
const (
	OrientationPortrait           Orientation = "portrait"
	OrientationPortraitUpsideDown Orientation = "portrait-upside-down"
	OrientationLandscapeLeft      Orientation = "landscape-left"
	OrientationLandscapeRight     Orientation = "landscape-right"
)

// ParseOrientation parses an orientation name.
func ParseOrientation(s string) (Orientation, error) {
	switch o := Orientation(strings.ToLower(s)); o {
	case OrientationPortrait, OrientationPortraitUpsideDown, OrientationLandscapeLeft, OrientationLandscapeRight:
		return o, nil
	}
	return "", fmt.Errorf("unknown orientation %q", s)
}

// Rotated reports whether frames are delivered with width and height swapped.
func (o Orientation) Rotated() bool {
	return o == OrientationPortrait || o == OrientationPortraitUpsideDown
}
