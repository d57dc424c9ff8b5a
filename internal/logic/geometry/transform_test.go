package geometry

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}

func TestPixelsToCentimeters_Golden(t *testing.T) {
	// 30 cm across 480 px: 0.0625 cm per pixel.
	cases := []struct {
		name   string
		offset Pixel
		dim    int
		want   Position
	}{
		{"origin", Pixel{0, 0}, 480, Position{0, 0}},
		{"one_pixel", Pixel{1, -1}, 480, Position{0.0625, -0.0625}},
		{"quarter_frame", Pixel{120, 60}, 480, Position{7.5, 3.75}},
		{"half_frame", Pixel{-240, 240}, 480, Position{-15, 15}},
		{"other_resolution", Pixel{100, 0}, 600, Position{5, 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := PixelsToCentimeters(tc.offset, tc.dim)
			if !approxEqual(got.X, tc.want.X, epsilon) || !approxEqual(got.Y, tc.want.Y, epsilon) {
				t.Errorf("PixelsToCentimeters(%v, %d) = %v, want %v", tc.offset, tc.dim, got, tc.want)
			}
		})
	}
}

func TestPixelsToCentimeters_Deterministic(t *testing.T) {
	a := PixelsToCentimeters(Pixel{37, -91}, 480)
	b := PixelsToCentimeters(Pixel{37, -91}, 480)
	if a != b {
		t.Errorf("same input produced %v and %v", a, b)
	}
}

func TestCentimetersToPixels_RoundTrip(t *testing.T) {
	for _, px := range []Pixel{{0, 0}, {13, -200}, {-239, 17}} {
		cm := PixelsToCentimeters(px, 480)
		x, y := CentimetersToPixels(cm, 480)
		if !approxEqual(x, float64(px.X), 1e-9) || !approxEqual(y, float64(px.Y), 1e-9) {
			t.Errorf("round trip of %v gave (%v, %v)", px, x, y)
		}
	}
}

func TestCameraViewToPlateView(t *testing.T) {
	got := CameraViewToPlateView(Position{X: 3, Y: -2})
	want := Position{X: -3, Y: -2}
	if got != want {
		t.Errorf("CameraViewToPlateView = %v, want %v", got, want)
	}
}

func TestCameraViewToPlateView_Inverse(t *testing.T) {
	for _, p := range []Position{{0, 0}, {1.5, -2.25}, {-7, 4}} {
		if back := PlateViewToCameraView(CameraViewToPlateView(p)); back != p {
			t.Errorf("inverse of %v gave %v", p, back)
		}
	}
}
