package gpio

// EnableLine is an active-LOW driver enable input: LOW powers the
// actuators, HIGH lets them freewheel. Pin 0 means not wired and turns
// every call into a no-op.
type EnableLine struct {
	gpio Driver
	pin  int
}

// NewEnableLine configures pin as an output and leaves the actuators off.
func NewEnableLine(g Driver, pin int) (*EnableLine, error) {
	e := &EnableLine{gpio: g, pin: pin}
	if pin <= 0 {
		return e, nil
	}
	if err := g.SetupPin(pin, Output); err != nil {
		return nil, err
	}
	if err := e.Disable(); err != nil {
		return nil, err
	}
	return e, nil
}

// Enable powers the actuators (ENABLE=LOW).
func (e *EnableLine) Enable() error {
	if e.pin <= 0 {
		return nil
	}
	return e.gpio.WritePin(e.pin, Low)
}

// Disable removes actuator power (ENABLE=HIGH).
func (e *EnableLine) Disable() error {
	if e.pin <= 0 {
		return nil
	}
	return e.gpio.WritePin(e.pin, High)
}
