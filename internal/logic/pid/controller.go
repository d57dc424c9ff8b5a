package pid

import (
	"math"

	"github.com/cjeanneret/ballplate/internal/debug"
	"github.com/cjeanneret/ballplate/internal/logic/geometry"
)

const (
	// Dt is the nominal cycle period in seconds. It is a constant: the
	// controller never measures wall-clock time.
	Dt = 0.1

	// IntegralBound caps the scaled integral term ki × ∫e on each axis.
	IntegralBound = 0.4

	// SatMinDeg and SatMaxDeg bound the tilt magnitude before conversion to radians.
	SatMinDeg = 0.0
	SatMaxDeg = 8.25
)

// MinAngleToMove is the dead-zone threshold in radians (0.5°).
var MinAngleToMove = radians(0.5)

// Terms is the breakdown of the last computed cycle.
type Terms struct {
	PX, PY float64 // proportional
	DX, DY float64 // derivative
	IX, IY float64 // scaled, clamped integral
	IntX   float64 // raw integral accumulators
	IntY   float64
	UX, UY float64 // control signal
}

// Controller is a two-axis PID controller producing plate tilt commands.
// It is not safe for concurrent use.
type Controller struct {
	gains    Gains
	verbose  bool
	deadZone bool

	prevErrX float64
	prevErrY float64
	intX     float64
	intY     float64

	last Terms
}

// Option configures a Controller.
type Option func(*Controller)

// WithVerboseErrors logs the p, d and i terms of every cycle.
func WithVerboseErrors() Option {
	return func(c *Controller) { c.verbose = true }
}

// WithDeadZone forces the tilt to zero when it would be below MinAngleToMove.
func WithDeadZone() Option {
	return func(c *Controller) { c.deadZone = true }
}

// New creates a controller with the gains of the given profile and zeroed state.
func New(profile Profile, opts ...Option) *Controller {
	c := &Controller{gains: profile.Gains()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Gains returns the coefficients in use.
func (c *Controller) Gains() Gains {
	return c.gains
}

// Terms returns the breakdown of the last Calculate call.
func (c *Controller) Terms() Terms {
	return c.last
}

// Calculate runs one control cycle and returns the tilt command that moves
// the ball from actual towards desired.
func (c *Controller) Calculate(desired, actual geometry.Position) geometry.TiltCommand {
	ex := desired.X - actual.X
	ey := desired.Y - actual.Y

	px := c.gains.Kp * ex
	py := c.gains.Kp * ey

	dx := c.gains.Kd * ((ex - c.prevErrX) / Dt)
	dy := c.gains.Kd * ((ey - c.prevErrY) / Dt)

	// The raw accumulator is never clamped; only its contribution is.
	c.intX += ex * Dt
	c.intY += ey * Dt
	ix := clamp(c.gains.Ki*c.intX, -IntegralBound, IntegralBound)
	iy := clamp(c.gains.Ki*c.intY, -IntegralBound, IntegralBound)

	if c.verbose {
		debug.Terms(px, py, dx, dy, ix, iy)
	}

	c.prevErrX = ex
	c.prevErrY = ey

	ux := px + dx + ix
	uy := py + dy + iy

	c.last = Terms{PX: px, PY: py, DX: dx, DY: dy, IX: ix, IY: iy, IntX: c.intX, IntY: c.intY, UX: ux, UY: uy}

	mag := math.Sqrt(ux*ux + uy*uy)
	var cmd geometry.TiltCommand
	if mag != 0 {
		cmd.DirX = ux / mag
		cmd.DirY = uy / mag
	}

	cmd.Theta = radians(clamp(mag, SatMinDeg, SatMaxDeg))
	if c.deadZone && cmd.Theta < MinAngleToMove {
		cmd.Theta = 0
	}
	return cmd
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(math.Min(hi, v), lo)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
