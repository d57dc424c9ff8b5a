package camera

import (
	"context"
	"errors"
	"fmt"

	"github.com/cjeanneret/ballplate/internal/debug"
)

var (
	// ErrFrameNotReady is returned by Device.Read when no frame is available yet.
	ErrFrameNotReady = errors.New("camera: frame not ready")

	// ErrAcquireTimeout is returned when a frame could not be read within the
	// configured number of attempts.
	ErrAcquireTimeout = errors.New("camera: frame acquisition timed out")
)

// Frame is a single captured image. The concrete pixel storage belongs to
// the device implementation; Close releases it.
type Frame interface {
	Width() int
	Height() int
	Close() error
}

// Device is the capture side of a camera, regardless of how it is
// reached (V4L2 through OpenCV, a file, a test fake).
type Device interface {
	// Read returns the next frame, or ErrFrameNotReady when the device has
	// nothing to deliver yet.
	Read() (Frame, error)
	// Close releases the device.
	Close() error
}

// Circle is a ball candidate in pixel coordinates.
type Circle struct {
	X      int
	Y      int
	Radius int
}

// Detector finds ball candidates in a frame, best candidate first.
type Detector interface {
	Detect(f Frame) ([]Circle, error)
}

// Acquire reads one frame from dev, retrying on ErrFrameNotReady.
// maxAttempts <= 0 retries forever; otherwise ErrAcquireTimeout is returned
// after that many not-ready reads. Any other read error is returned as is.
func Acquire(ctx context.Context, dev Device, maxAttempts int) (Frame, error) {
	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		f, err := dev.Read()
		if err == nil {
			if attempt > 1 {
				debug.Trace("Camera: frame ready after %d reads", attempt)
			}
			return f, nil
		}
		if !errors.Is(err, ErrFrameNotReady) {
			return nil, fmt.Errorf("read frame: %w", err)
		}
		if maxAttempts > 0 && attempt >= maxAttempts {
			return nil, fmt.Errorf("%w after %d reads", ErrAcquireTimeout, attempt)
		}
	}
}
