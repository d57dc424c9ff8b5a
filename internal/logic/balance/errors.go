package balance

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfBounds is wrapped by every InvariantViolation.
	ErrOutOfBounds = errors.New("balance: value outside safety bounds")

	// ErrHomingTimeout reports that the homing sentinel never arrived.
	ErrHomingTimeout = errors.New("balance: homing handshake timed out")

	// ErrNotHomed reports a Step attempted before Home succeeded.
	ErrNotHomed = errors.New("balance: step before homing")

	// ErrOperatorQuit reports that the operator asked to stop from the keyboard.
	ErrOperatorQuit = errors.New("balance: operator quit")
)

// InvariantViolation is a safety-bound breach. It is fatal: the process
// must stop without sending anything else to the actuators.
type InvariantViolation struct {
	Quantity string // "tilt" or "actuator"
	Index    int    // arm index for actuator breaches, -1 otherwise
	Value    float64
	Min, Max float64
}

func (e *InvariantViolation) Error() string {
	name := e.Quantity
	if e.Index >= 0 {
		name = fmt.Sprintf("%s[%d]", e.Quantity, e.Index)
	}
	return fmt.Sprintf("%v: %s = %.6f rad not in [%.6f, %.6f]", ErrOutOfBounds, name, e.Value, e.Min, e.Max)
}

func (e *InvariantViolation) Unwrap() error {
	return ErrOutOfBounds
}

// IsFatal reports whether err carries an InvariantViolation.
func IsFatal(err error) bool {
	var v *InvariantViolation
	return errors.As(err, &v)
}

// checkBounds is inclusive on both ends. NaN never passes.
func checkBounds(quantity string, index int, v, lo, hi float64) error {
	if v >= lo && v <= hi {
		return nil
	}
	return &InvariantViolation{Quantity: quantity, Index: index, Value: v, Min: lo, Max: hi}
}
