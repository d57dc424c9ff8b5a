package link

import (
	"fmt"
	"io"
	"strconv"

	"github.com/cjeanneret/ballplate/internal/debug"
)

// Actuator is the link to the actuator controller. It reports status lines
// (such as the homing sentinel) and accepts one angle set per line.
type Actuator struct {
	name  string
	port  io.ReadWriteCloser
	lines *lineReader
}

// NewActuator wraps an open port. name is only used in logs and errors.
func NewActuator(name string, port io.ReadWriteCloser) *Actuator {
	return &Actuator{
		name:  name,
		port:  port,
		lines: newLineReader(name, port),
	}
}

// ReadStatus returns the next status line, or ErrNoData.
func (a *Actuator) ReadStatus() (string, error) {
	return a.lines.ReadLine()
}

// WriteAngles sends the actuator angles in radians as one line:
// "a0,a1,a2\n" with six decimals.
func (a *Actuator) WriteAngles(angles []float64) error {
	msg := EncodeAngles(angles)
	debug.Link(a.name, "write", msg)
	if _, err := a.port.Write(msg); err != nil {
		return fmt.Errorf("write %s: %w", a.name, err)
	}
	return nil
}

// Close closes the underlying port.
func (a *Actuator) Close() error {
	return a.port.Close()
}

// EncodeAngles formats an angle set for the actuator controller.
func EncodeAngles(angles []float64) []byte {
	buf := make([]byte, 0, len(angles)*10+1)
	for i, v := range angles {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendFloat(buf, v, 'f', 6, 64)
	}
	return append(buf, '\n')
}
