package vision

import (
	"context"
	"fmt"

	"github.com/cjeanneret/ballplate/internal/debug"
	"github.com/cjeanneret/ballplate/internal/hw/camera"
	"github.com/cjeanneret/ballplate/internal/logic/geometry"
)

// Config holds the locator options.
type Config struct {
	// MaxReadAttempts bounds frame acquisition; 0 retries forever.
	MaxReadAttempts int
	// Memory returns the last detected position on a detection miss
	// instead of the plate center.
	Memory bool
}

// Locator turns camera frames into ball positions on the plate.
// It owns the camera device and is not safe for concurrent use.
type Locator struct {
	device   camera.Device
	detector camera.Detector
	cfg      Config

	last   geometry.Position
	closed bool
}

func NewLocator(dev camera.Device, det camera.Detector, cfg Config) *Locator {
	return &Locator{
		device:   dev,
		detector: det,
		cfg:      cfg,
	}
}

// Locate captures one frame and returns the ball position in plate
// coordinates (cm). A frame without a ball yields the last known position
// in memory mode, and the plate center otherwise.
func (l *Locator) Locate(ctx context.Context) (geometry.Position, error) {
	frame, err := camera.Acquire(ctx, l.device, l.cfg.MaxReadAttempts)
	if err != nil {
		return geometry.Position{}, err
	}
	defer frame.Close()

	circles, err := l.detector.Detect(frame)
	if err != nil {
		return geometry.Position{}, fmt.Errorf("detect ball: %w", err)
	}

	if len(circles) == 0 {
		if l.cfg.Memory {
			debug.Verbose("Locator: no ball, reusing (%.2f, %.2f)", l.last.X, l.last.Y)
			return l.last, nil
		}
		debug.Verbose("Locator: no ball, assuming center")
		return geometry.Position{}, nil
	}

	ball := circles[0]
	offset := geometry.Pixel{
		X: frame.Width()/2 - ball.X,
		Y: frame.Height()/2 - ball.Y,
	}
	pos := geometry.CameraViewToPlateView(geometry.PixelsToCentimeters(offset, frame.Height()))
	if l.cfg.Memory {
		l.last = pos
	}
	debug.Verbose("Locator: ball at px (%d, %d) -> (%.2f, %.2f) cm", ball.X, ball.Y, pos.X, pos.Y)
	return pos, nil
}

// Close releases the camera. It is safe to call more than once.
func (l *Locator) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	return l.device.Close()
}
