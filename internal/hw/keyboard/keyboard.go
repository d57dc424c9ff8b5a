// Package keyboard reads single key presses from the controlling terminal.
package keyboard

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/cjeanneret/ballplate/internal/debug"
)

// Keyboard delivers one byte per key press. When attached to a terminal it
// switches it to raw mode so keys arrive without waiting for Enter.
type Keyboard struct {
	in    io.Reader
	fd    int
	state *term.State
}

// Open puts f (usually os.Stdin) in raw mode if it is a terminal.
func Open(f *os.File) (*Keyboard, error) {
	k := &Keyboard{in: f, fd: int(f.Fd())}
	if term.IsTerminal(k.fd) {
		state, err := term.MakeRaw(k.fd)
		if err != nil {
			return nil, fmt.Errorf("keyboard raw mode: %w", err)
		}
		k.state = state
		debug.Verbose("Keyboard: terminal in raw mode")
	}
	return k, nil
}

// New reads keys from r without touching any terminal state.
func New(r io.Reader) *Keyboard {
	return &Keyboard{in: r, fd: -1}
}

// ReadKey blocks until a key is pressed and returns it.
func (k *Keyboard) ReadKey() (byte, error) {
	var b [1]byte
	for {
		n, err := k.in.Read(b[:])
		if n == 1 {
			debug.Trace("Keyboard: key %q", b[0])
			return b[0], nil
		}
		if err != nil {
			return 0, err
		}
	}
}

// Close restores the terminal.
func (k *Keyboard) Close() error {
	if k.state == nil {
		return nil
	}
	state := k.state
	k.state = nil
	return term.Restore(k.fd, state)
}
