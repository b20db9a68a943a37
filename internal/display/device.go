package display

import "image"

// Display geometry of the ST7735 on the Enviro+ (rotated landscape).
const (
	Width  = 160
	Height = 80
)

// Device is the display-write capability. The real ST7735 driver, a
// terminal simulator or a discard sink all satisfy it.
type Device interface {
	// Push writes one full frame. The image is only valid for the
	// duration of the call.
	Push(frame *image.RGBA) error
	Close() error
}

// Discard is a Device for headless runs.
type Discard struct{}

func (Discard) Push(*image.RGBA) error { return nil }
func (Discard) Close() error { return nil }
