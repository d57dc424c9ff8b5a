package link

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cjeanneret/ballplate/internal/debug"
)

// Joystick reads tilt commands from the auxiliary input device. The device
// prints one "dirX,dirY,thetaRad" line per sample.
type Joystick struct {
	name  string
	port  io.ReadCloser
	lines *lineReader
}

func NewJoystick(name string, port io.ReadCloser) *Joystick {
	return &Joystick{
		name:  name,
		port:  port,
		lines: newLineReader(name, port),
	}
}

// ReadCommand returns the next well-formed sample. Malformed lines (boot
// banners, noise) are skipped. ErrNoData is returned when nothing usable
// arrived before the read timeout.
func (j *Joystick) ReadCommand() (dirX, dirY, theta float64, err error) {
	for {
		line, err := j.lines.ReadLine()
		if err != nil {
			return 0, 0, 0, err
		}
		dirX, dirY, theta, err = ParseCommand(line)
		if err == nil {
			return dirX, dirY, theta, nil
		}
		debug.Trace("Joystick %s: skipping %q: %v", j.name, line, err)
	}
}

// Close closes the underlying port.
func (j *Joystick) Close() error {
	return j.port.Close()
}

// ParseCommand parses a "dirX,dirY,thetaRad" line.
func ParseCommand(line string) (dirX, dirY, theta float64, err error) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("want 3 fields, got %d", len(parts))
	}
	var vals [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("field %d: %w", i, err)
		}
		vals[i] = v
	}
	return vals[0], vals[1], vals[2], nil
}
