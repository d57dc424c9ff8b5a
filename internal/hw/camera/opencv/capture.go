// Package opencv implements the camera interfaces on top of gocv.
// It needs OpenCV at build time and is kept apart so the rest of the
// module builds and tests without cgo.
package opencv

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/cjeanneret/ballplate/internal/debug"
	"github.com/cjeanneret/ballplate/internal/hw/camera"
)

// Frame wraps a gocv.Mat holding a BGR image.
type Frame struct {
	Mat gocv.Mat
}

func (f *Frame) Width() int   { return f.Mat.Cols() }
func (f *Frame) Height() int  { return f.Mat.Rows() }
func (f *Frame) Close() error { return f.Mat.Close() }

// Capture is a camera.Device backed by an OpenCV VideoCapture.
type Capture struct {
	vc     *gocv.VideoCapture
	closed bool
}

// Open opens the camera at index and requests the given resolution.
func Open(index, widthPx, heightPx int) (*Capture, error) {
	vc, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", index, err)
	}
	vc.Set(gocv.VideoCaptureFrameWidth, float64(widthPx))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(heightPx))

	debug.Info("Camera %d opened (requested %dx%d)", index, widthPx, heightPx)
	return &Capture{vc: vc}, nil
}

// Read grabs the next frame. An empty grab is reported as camera.ErrFrameNotReady.
func (c *Capture) Read() (camera.Frame, error) {
	mat := gocv.NewMat()
	if ok := c.vc.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, camera.ErrFrameNotReady
	}
	return &Frame{Mat: mat}, nil
}

// Close releases the device. Calling it twice is safe.
func (c *Capture) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	debug.Verbose("Camera: releasing capture device")
	return c.vc.Close()
}
