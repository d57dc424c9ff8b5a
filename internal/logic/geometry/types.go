package geometry

// Position is a point on the plate in centimeters, origin at the plate center.
type Position struct {
	X float64
	Y float64
}

// Pixel is an integer offset in image space.
type Pixel struct {
	X int
	Y int
}

// TiltCommand describes how to tilt the plate.
// (DirX, DirY) is a unit vector, or exactly (0, 0) when the control
// magnitude was zero. Theta is the tilt magnitude in radians.
type TiltCommand struct {
	DirX  float64
	DirY  float64
	Theta float64
}

// Level is the command that holds the plate flat.
var Level = TiltCommand{}
