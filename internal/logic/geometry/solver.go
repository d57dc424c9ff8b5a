package geometry

import (
	"fmt"
	"math"
)

// Solver converts a tilt command into one angle per actuator (radians).
type Solver interface {
	Solve(dirX, dirY, theta float64) ([]float64, error)
}

// ThreeArmSolver is a small-angle inverse kinematics model for a plate
// carried by three rotary arms spaced 120° apart.
//
// Each arm i attaches to the plate at PlateRadiusCm along the unit vector
// a_i. Tilting the plate by theta towards direction d lowers that attachment
// point by PlateRadiusCm × sin(theta) × (d · a_i); the arm reaches that
// height with angle asin(height / ArmLengthCm).
type ThreeArmSolver struct {
	PlateRadiusCm float64
	ArmLengthCm   float64
	// FirstArmDeg is the angle of arm 0 measured from the plate +x axis.
	FirstArmDeg float64
}

// NewThreeArmSolver creates a solver with arm 0 on the plate +y axis.
func NewThreeArmSolver(plateRadiusCm, armLengthCm float64) *ThreeArmSolver {
	return &ThreeArmSolver{
		PlateRadiusCm: plateRadiusCm,
		ArmLengthCm:   armLengthCm,
		FirstArmDeg:   90,
	}
}

// Solve returns the three arm angles in radians, ordered counter-clockwise
// starting at FirstArmDeg.
func (s *ThreeArmSolver) Solve(dirX, dirY, theta float64) ([]float64, error) {
	if s.ArmLengthCm <= 0 {
		return nil, fmt.Errorf("arm length must be > 0, got %g", s.ArmLengthCm)
	}

	drop := s.PlateRadiusCm * math.Sin(theta)
	angles := make([]float64, 3)
	for i := range angles {
		a := (s.FirstArmDeg + float64(i)*120) * math.Pi / 180
		height := -drop * (dirX*math.Cos(a) + dirY*math.Sin(a))
		ratio := height / s.ArmLengthCm
		if ratio > 1 || ratio < -1 {
			return nil, fmt.Errorf("arm %d cannot reach %.3f cm with a %.3f cm arm", i, height, s.ArmLengthCm)
		}
		angles[i] = math.Asin(ratio)
	}
	return angles, nil
}
