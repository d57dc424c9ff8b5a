package opencv

import (
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"

	"github.com/cjeanneret/ballplate/internal/debug"
	"github.com/cjeanneret/ballplate/internal/hw/camera"
)

// HoughParams tunes the Hough gradient circle transform.
type HoughParams struct {
	DP             float64 // inverse ratio of accumulator resolution
	MinDist        float64 // minimum distance between centers (px)
	CannyThreshold float64 // higher Canny threshold
	AccumThreshold float64 // accumulator threshold for centers
	MinRadius      int
	MaxRadius      int
}

// HoughDetector finds round balls with cv::HoughCircles on a blurred
// grayscale copy of the frame.
type HoughDetector struct {
	params HoughParams
}

func NewHoughDetector(p HoughParams) *HoughDetector {
	return &HoughDetector{params: p}
}

// Detect returns the circles found, strongest first, with centers and radii
// rounded to whole pixels.
func (d *HoughDetector) Detect(f camera.Frame) ([]camera.Circle, error) {
	frame, ok := f.(*Frame)
	if !ok {
		return nil, fmt.Errorf("hough detector: unsupported frame type %T", f)
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(frame.Mat, &gray, gocv.ColorBGRToGray)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: 9, Y: 9}, 2, 2, gocv.BorderDefault)

	circles := gocv.NewMat()
	defer circles.Close()
	gocv.HoughCirclesWithParams(blurred, &circles, gocv.HoughGradient,
		d.params.DP, d.params.MinDist,
		d.params.CannyThreshold, d.params.AccumThreshold,
		d.params.MinRadius, d.params.MaxRadius)

	if circles.Empty() || circles.Cols() == 0 {
		return nil, nil
	}

	found := make([]camera.Circle, circles.Cols())
	for i := range found {
		found[i] = camera.Circle{
			X:      int(math.Round(float64(circles.GetFloatAt(0, i*3)))),
			Y:      int(math.Round(float64(circles.GetFloatAt(0, i*3+1)))),
			Radius: int(math.Round(float64(circles.GetFloatAt(0, i*3+2)))),
		}
	}
	debug.Verbose("Detector: %d candidate(s), first at (%d, %d) r=%d", len(found), found[0].X, found[0].Y, found[0].Radius)
	return found, nil
}
