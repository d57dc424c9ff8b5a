package geometry

// FieldOfViewCm is the physical width of plate seen by the camera across a
// full frame dimension. The camera is mounted so that a square frame always
// spans the same 30 cm, independent of the capture resolution.
const FieldOfViewCm = 30.0

// PixelsToCentimeters converts a pixel offset into centimeters given the
// frame dimension (in pixels) the offset was measured on.
// Formula: cm = px × FieldOfViewCm / frameDimension
func PixelsToCentimeters(offset Pixel, frameDimension int) Position {
	ratio := FieldOfViewCm / float64(frameDimension)
	return Position{
		X: float64(offset.X) * ratio,
		Y: float64(offset.Y) * ratio,
	}
}

// CentimetersToPixels is the inverse of PixelsToCentimeters. The result is
// not rounded; callers that need whole pixels round it themselves.
func CentimetersToPixels(p Position, frameDimension int) (x, y float64) {
	ratio := float64(frameDimension) / FieldOfViewCm
	return p.X * ratio, p.Y * ratio
}

// CameraViewToPlateView maps a position seen by the camera onto the plate's
// control frame. The camera looks up at the plate from underneath, so its
// image is mirrored along the x axis.
func CameraViewToPlateView(p Position) Position {
	return Position{X: -p.X, Y: p.Y}
}

// PlateViewToCameraView is the inverse of CameraViewToPlateView.
func PlateViewToCameraView(p Position) Position {
	return Position{X: -p.X, Y: p.Y}
}
