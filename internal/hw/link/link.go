// Package link talks to the serial devices around the plate: the actuator
// controller and the auxiliary joystick.
package link

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"

	"github.com/cjeanneret/ballplate/internal/debug"
)

// ErrNoData is returned when a read timed out before a full line arrived.
var ErrNoData = errors.New("link: no data")

// maxLineLen bounds the buffered partial line; longer garbage is dropped.
const maxLineLen = 256

// Open opens a serial port in 8N1 at the given baud rate. Reads return after
// readTimeout with whatever has arrived, possibly nothing.
func Open(name string, baudRate int, readTimeout time.Duration) (serial.Port, error) {
	port, err := serial.Open(name, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", name, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", name, err)
	}
	debug.Info("Serial port %s opened at %d baud", name, baudRate)
	return port, nil
}

// lineReader splits a timed-out byte stream into newline-terminated lines.
type lineReader struct {
	name  string
	r     io.Reader
	buf   []byte
	chunk [64]byte
}

func newLineReader(name string, r io.Reader) *lineReader {
	return &lineReader{name: name, r: r}
}

// ReadLine returns the next complete line without its terminator, or
// ErrNoData if the read timed out first. Partial lines are kept for the
// next call.
func (l *lineReader) ReadLine() (string, error) {
	if line, ok := l.pop(); ok {
		return line, nil
	}

	n, err := l.r.Read(l.chunk[:])
	if n > 0 {
		debug.Link(l.name, "read", l.chunk[:n])
		l.buf = append(l.buf, l.chunk[:n]...)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", l.name, err)
	}

	if line, ok := l.pop(); ok {
		return line, nil
	}
	if len(l.buf) > maxLineLen {
		debug.Trace("Link %s: dropping %d bytes without newline", l.name, len(l.buf))
		l.buf = l.buf[:0]
	}
	return "", ErrNoData
}

func (l *lineReader) pop() (string, bool) {
	i := bytes.IndexByte(l.buf, '\n')
	if i < 0 {
		return "", false
	}
	line := string(bytes.TrimRight(l.buf[:i], "\r"))
	l.buf = l.buf[i+1:]
	return line, true
}
