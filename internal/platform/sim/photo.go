package sim

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"log/slog"
	"time"

	"github.com/smazurov/camnode/internal/capture"
)

// maxStillEdge caps the longer edge of generated stills.
const maxStillEdge = 1920

// PhotoOutput renders a test frame and encodes it as JPEG.
type PhotoOutput struct {
	session *Session
	fail    bool
	logger  *slog.Logger
}

// CaptureStillImage renders one frame on a new goroutine and passes it to
// done. The session must be running.
func (o *PhotoOutput) CaptureStillImage(orientation capture.Orientation, done func(capture.Image, error)) error {
	if !o.session.Running() {
		return ErrNotRunning
	}
	device, ok := o.session.videoDevice()
	if !ok {
		return fmt.Errorf("no video input attached")
	}
	width, height := stillSize(o.session.Preset(), orientation)

	go func() {
		if o.fail {
			done(capture.Image{}, ErrSensorTimeout)
			return
		}

		start := time.Now()
		data, err := renderJPEG(width, height, device.Position)
		if err != nil {
			done(capture.Image{}, fmt.Errorf("failed to encode still: %w", err))
			return
		}
		o.logger.Debug("Still rendered", "device", device.ID, "width", width, "height", height, "took", time.Since(start))

		done(capture.Image{
			Data:        data,
			Format:      "jpeg",
			Width:       width,
			Height:      height,
			Orientation: orientation,
			CapturedAt:  start,
		}, nil)
	}()
	return nil
}

// stillSize returns the frame size for preset, scaled down to maxStillEdge
// and rotated for portrait orientations.
func stillSize(preset capture.Preset, orientation capture.Orientation) (int, int) {
	w, h := preset.Dimensions()
	if edge := max(w, h); edge > maxStillEdge {
		w = w * maxStillEdge / edge
		h = h * maxStillEdge / edge
	}
	if orientation.Rotated() {
		w, h = h, w
	}
	return w, h
}

// renderJPEG draws a gradient test pattern tinted by camera position.
func renderJPEG(width, height int, position capture.Position) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var tint uint8
	if position == capture.PositionFront {
		tint = 160
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x * 255 / width),
				G: uint8(y * 255 / height),
				B: tint,
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
