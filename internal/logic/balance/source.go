package balance

import (
	"context"
	"errors"

	"github.com/cjeanneret/ballplate/internal/debug"
	"github.com/cjeanneret/ballplate/internal/hw/link"
	"github.com/cjeanneret/ballplate/internal/logic/geometry"
	"github.com/cjeanneret/ballplate/internal/logic/pid"
)

// Source produces the tilt command of one cycle.
type Source interface {
	Next(ctx context.Context) (geometry.TiltCommand, error)
}

// BallTracker is implemented by sources that know where the ball is.
type BallTracker interface {
	Ball() geometry.Position
}

// Locator is the part of vision.Locator used by VisionSource.
type Locator interface {
	Locate(ctx context.Context) (geometry.Position, error)
}

// VisionSource closes the loop: camera position in, PID tilt out.
type VisionSource struct {
	locator    Locator
	controller *pid.Controller
	target     geometry.Position
	ball       geometry.Position
}

func NewVisionSource(loc Locator, ctrl *pid.Controller, target geometry.Position) *VisionSource {
	return &VisionSource{locator: loc, controller: ctrl, target: target}
}

func (s *VisionSource) Next(ctx context.Context) (geometry.TiltCommand, error) {
	pos, err := s.locator.Locate(ctx)
	if err != nil {
		return geometry.TiltCommand{}, err
	}
	s.ball = pos
	debug.Live("Ball at (%.2f, %.2f) cm", pos.X, pos.Y)
	return s.controller.Calculate(s.target, pos), nil
}

// Ball returns the position used by the last cycle.
func (s *VisionSource) Ball() geometry.Position { return s.ball }

// KeyReader is satisfied by keyboard.Keyboard.
type KeyReader interface {
	ReadKey() (byte, error)
}

const keyCtrlC = 3

// KeyboardSource maps WASD to a fixed tilt. Each call blocks for one key.
// Any other key levels the plate; q or Ctrl-C stops the run.
type KeyboardSource struct {
	keys KeyReader
	tilt float64
}

func NewKeyboardSource(keys KeyReader, tiltRad float64) *KeyboardSource {
	return &KeyboardSource{keys: keys, tilt: tiltRad}
}

func (s *KeyboardSource) Next(ctx context.Context) (geometry.TiltCommand, error) {
	if err := ctx.Err(); err != nil {
		return geometry.TiltCommand{}, err
	}
	key, err := s.keys.ReadKey()
	if err != nil {
		return geometry.TiltCommand{}, err
	}
	return s.command(key)
}

func (s *KeyboardSource) command(key byte) (geometry.TiltCommand, error) {
	switch key {
	case 'w', 'W':
		return geometry.TiltCommand{DirY: 1, Theta: s.tilt}, nil
	case 's', 'S':
		return geometry.TiltCommand{DirY: -1, Theta: s.tilt}, nil
	case 'a', 'A':
		return geometry.TiltCommand{DirX: -1, Theta: s.tilt}, nil
	case 'd', 'D':
		return geometry.TiltCommand{DirX: 1, Theta: s.tilt}, nil
	case 'q', 'Q', keyCtrlC:
		return geometry.TiltCommand{}, ErrOperatorQuit
	default:
		return geometry.Level, nil
	}
}

// CommandReader is satisfied by link.Joystick.
type CommandReader interface {
	ReadCommand() (dirX, dirY, theta float64, err error)
}

// JoystickSource relays commands from the auxiliary input device. When no
// sample arrived within the link timeout the previous command is repeated.
type JoystickSource struct {
	reader CommandReader
	last   geometry.TiltCommand
}

func NewJoystickSource(r CommandReader) *JoystickSource {
	return &JoystickSource{reader: r, last: geometry.Level}
}

func (s *JoystickSource) Next(ctx context.Context) (geometry.TiltCommand, error) {
	if err := ctx.Err(); err != nil {
		return geometry.TiltCommand{}, err
	}
	dx, dy, theta, err := s.reader.ReadCommand()
	if errors.Is(err, link.ErrNoData) {
		debug.Verbose("Joystick: no sample, repeating last command")
		return s.last, nil
	}
	if err != nil {
		return geometry.TiltCommand{}, err
	}
	s.last = geometry.TiltCommand{DirX: dx, DirY: dy, Theta: theta}
	return s.last, nil
}
