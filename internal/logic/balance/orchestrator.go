// Package balance runs the control loop: homing handshake, tilt source,
// safety bounds and actuator dispatch.
package balance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cjeanneret/ballplate/internal/config"
	"github.com/cjeanneret/ballplate/internal/debug"
	"github.com/cjeanneret/ballplate/internal/hw/link"
	"github.com/cjeanneret/ballplate/internal/logic/geometry"
	"github.com/cjeanneret/ballplate/internal/telemetry"
)

// State of the orchestrator.
type State int32

const (
	StateAwaitingHome State = iota
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateAwaitingHome:
		return "awaiting_home"
	case StateRunning:
		return "running"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Link is the actuator controller connection (link.Actuator).
type Link interface {
	ReadStatus() (string, error)
	WriteAngles(angles []float64) error
}

// Enabler powers the actuators once homing is done (gpio.EnableLine).
type Enabler interface {
	Enable() error
}

// Orchestrator owns one control loop. Run, Home and Step must be called
// from a single goroutine; State may be read from any goroutine.
type Orchestrator struct {
	cfg       *config.Config
	link      Link
	source    Source
	solver    geometry.Solver
	observers []telemetry.Observer
	enable    Enabler
	now       func() time.Time

	state atomic.Int32
	cycle atomic.Uint64
	start time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithObserver adds a per-cycle observer (recorder, web telemetry).
func WithObserver(obs telemetry.Observer) Option {
	return func(o *Orchestrator) { o.observers = append(o.observers, obs) }
}

// WithEnabler raises the actuator enable line after homing.
func WithEnabler(e Enabler) Option {
	return func(o *Orchestrator) { o.enable = e }
}

func New(cfg *config.Config, l Link, src Source, solver geometry.Solver, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:    cfg,
		link:   l,
		source: src,
		solver: solver,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current state.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// Cycles returns the number of dispatched cycles.
func (o *Orchestrator) Cycles() uint64 {
	return o.cycle.Load()
}

// Home waits for the actuator controller to report the homing sentinel.
// Only complete status lines are compared, after trimming whitespace.
func (o *Orchestrator) Home(ctx context.Context) error {
	sentinel := o.cfg.Handshake.Sentinel
	timeout := o.cfg.HandshakeTimeout()
	var deadline time.Time
	if timeout > 0 {
		deadline = o.now().Add(timeout)
		debug.Info("Waiting for %q from actuator controller (timeout %v)", sentinel, timeout)
	} else {
		debug.Info("Waiting for %q from actuator controller", sentinel)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !deadline.IsZero() && o.now().After(deadline) {
			return fmt.Errorf("%w after %v", ErrHomingTimeout, timeout)
		}

		line, err := o.link.ReadStatus()
		if errors.Is(err, link.ErrNoData) {
			continue
		}
		if err != nil {
			return fmt.Errorf("homing: %w", err)
		}
		if strings.TrimSpace(line) != sentinel {
			debug.Verbose("Homing: ignoring %q", line)
			continue
		}

		debug.Info("Homing complete")
		if o.enable != nil {
			if err := o.enable.Enable(); err != nil {
				return fmt.Errorf("enable actuators: %w", err)
			}
		}
		o.state.Store(int32(StateRunning))
		o.start = o.now()
		return nil
	}
}

// Run homes, then steps until ctx is done or a step fails. Cancellation
// is reported as ctx.Err().
func (o *Orchestrator) Run(ctx context.Context) error {
	debug.Section("HOMING")
	if err := o.Home(ctx); err != nil {
		return err
	}
	debug.Section("CONTROL LOOP")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := o.Step(ctx); err != nil {
			return err
		}
	}
}

// Step runs one cycle. Nothing is written to the link when a bound is
// breached; the returned *InvariantViolation is fatal.
func (o *Orchestrator) Step(ctx context.Context) error {
	if o.State() != StateRunning {
		return ErrNotHomed
	}
	cmd, err := o.source.Next(ctx)
	if err != nil {
		return err
	}

	b := o.cfg.Bounds
	if err := checkBounds("tilt", -1, cmd.Theta, b.TiltMinRad, b.TiltMaxRad); err != nil {
		return err
	}
	angles, err := o.solver.Solve(cmd.DirX, cmd.DirY, cmd.Theta)
	if err != nil {
		return fmt.Errorf("solve (%.3f, %.3f, %.4f): %w", cmd.DirX, cmd.DirY, cmd.Theta, err)
	}
	for i, a := range angles {
		if err := checkBounds("actuator", i, a, b.ActuatorMinRad, b.ActuatorMaxRad); err != nil {
			return err
		}
	}
	if err := o.link.WriteAngles(angles); err != nil {
		return err
	}

	n := o.cycle.Add(1)
	debug.Cycle(n, cmd.DirX, cmd.DirY, cmd.Theta, angles)
	if len(o.observers) == 0 {
		return nil
	}
	sample := telemetry.Sample{
		Cycle:   n,
		Elapsed: o.now().Sub(o.start),
		Mode:    o.cfg.Mode,
		DirX:    cmd.DirX,
		DirY:    cmd.DirY,
		Theta:   cmd.Theta,
		Angles:  angles,
	}
	if bt, ok := o.source.(BallTracker); ok {
		p := bt.Ball()
		sample.BallX, sample.BallY = p.X, p.Y
	}
	for _, obs := range o.observers {
		obs.OnCycle(sample)
	}
	return nil
}
