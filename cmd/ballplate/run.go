package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cjeanneret/ballplate/internal/config"
	"github.com/cjeanneret/ballplate/internal/debug"
	"github.com/cjeanneret/ballplate/internal/hw/gpio"
	"github.com/cjeanneret/ballplate/internal/hw/keyboard"
	"github.com/cjeanneret/ballplate/internal/hw/link"
	"github.com/cjeanneret/ballplate/internal/logic/balance"
	"github.com/cjeanneret/ballplate/internal/logic/geometry"
	"github.com/cjeanneret/ballplate/internal/logic/pid"
	"github.com/cjeanneret/ballplate/internal/telemetry"
	"github.com/cjeanneret/ballplate/internal/web"
)

func newRunCmd() *cobra.Command {
	var o runOverrides
	webPort := &webPortFlag{defaultPort: defaultWebPort}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "home the plate and run the balancing loop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			o.webPort = webPort.port()
			if err := applyOverrides(cfg, o); err != nil {
				return fmt.Errorf("invalid override: %w", err)
			}
			return runControl(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&o.mode, "mode", "", "tilt source: vision, local_manual or remote_manual")
	cmd.Flags().StringVar(&o.profile, "profile", "", "PID gain profile (see 'ballplate profiles')")
	cmd.Flags().StringVar(&o.recordDir, "record", "", "record every cycle under this directory")
	cmd.Flags().Var(webPort, "web", "start the web monitor; --web for port 8080, --web=8980 for a custom port")
	cmd.Flags().Lookup("web").NoOptDefVal = strconv.Itoa(defaultWebPort)
	return cmd
}

// runControl wires the hardware for cfg.Mode and runs the loop until ctx is
// cancelled or a step fails.
func runControl(ctx context.Context, cfg *config.Config) (err error) {
	debug.Value("Mode", cfg.Mode)
	debug.Value("Profile", cfg.Controller.Profile)
	debug.PrintStruct("Bounds", cfg.Bounds)

	debug.Step(1, "Initializing GPIO driver")
	gpioDriver, err := gpio.NewDriver(cfg.GPIO.Mock)
	if err != nil {
		return fmt.Errorf("init GPIO failed: %w", err)
	}
	defer func() {
		if err := gpioDriver.Close(); err != nil {
			debug.Info("closing GPIO driver failed: %v", err)
		}
	}()
	enable, err := gpio.NewEnableLine(gpioDriver, cfg.GPIO.EnablePin)
	if err != nil {
		return fmt.Errorf("init enable line: %w", err)
	}
	defer enable.Disable()

	debug.Step(2, "Opening actuator link")
	port, err := link.Open(cfg.Link.ActuatorPort, cfg.Link.BaudRate, cfg.ReadTimeout())
	if err != nil {
		return err
	}
	actuator := link.NewActuator(cfg.Link.ActuatorPort, port)
	defer actuator.Close()

	debug.Step(3, "Initializing tilt source")
	src, closeSource, err := newSource(cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	opts := []balance.Option{balance.WithEnabler(enable)}
	var runID string
	if cfg.Defaults.RecordDir != "" {
		rec, recErr := telemetry.NewStore(cfg.Defaults.RecordDir).Create(cfg.Mode, cfg.Controller.Profile)
		if recErr != nil {
			return fmt.Errorf("start recording: %w", recErr)
		}
		runID = rec.ID()
		opts = append(opts, balance.WithObserver(rec))
		defer func() {
			if cerr := rec.Close(outcome(err)); cerr != nil {
				debug.Info("closing recording failed: %v", cerr)
			}
		}()
	}

	var (
		status *web.StatusBroadcaster
		hub    *web.TelemetryHub
	)
	if cfg.Defaults.WebPort > 0 {
		status = web.NewStatusBroadcaster()
		hub = web.NewTelemetryHub()
		opts = append(opts, balance.WithObserver(hub))
	}

	solver := geometry.NewThreeArmSolver(cfg.Solver.PlateRadiusCm, cfg.Solver.ArmLengthCm)
	orch := balance.New(cfg, actuator, src, solver, opts...)

	if status != nil {
		debug.Step(4, "Starting web monitor")
		srv, srvErr := web.NewServer(fmt.Sprintf(":%d", cfg.Defaults.WebPort), status, hub,
			runInfo(cfg, runID),
			func() (string, uint64) { return orch.State().String(), orch.Cycles() })
		if srvErr != nil {
			return srvErr
		}
		debug.SetOutput(io.MultiWriter(os.Stdout, web.BroadcastWriter(status)))
		defer debug.SetOutput(os.Stdout)

		webCtx, stopWeb := context.WithCancel(ctx)
		webDone := make(chan struct{})
		go func() {
			defer close(webDone)
			if err := srv.Run(webCtx); err != nil {
				debug.Info("web server: %v", err)
			}
		}()
		defer func() {
			stopWeb()
			<-webDone
		}()
	}

	err = orch.Run(ctx)
	if balance.IsFatal(err) {
		fatalExit(err)
	}
	debug.Summary("Run finished")
	debug.Value("Cycles", orch.Cycles())
	return err
}

// newSource builds the tilt source for cfg.Mode and a function releasing
// the devices it opened.
func newSource(cfg *config.Config) (balance.Source, func(), error) {
	switch cfg.Mode {
	case config.ModeVision:
		profile, err := pid.ParseProfile(cfg.Controller.Profile)
		if err != nil {
			return nil, nil, err
		}
		var pidOpts []pid.Option
		if cfg.Controller.DeadZone {
			pidOpts = append(pidOpts, pid.WithDeadZone())
		}
		if cfg.Controller.VerboseErrors {
			pidOpts = append(pidOpts, pid.WithVerboseErrors())
		}
		loc, err := newLocator(cfg)
		if err != nil {
			return nil, nil, err
		}
		target := geometry.Position{X: cfg.Controller.TargetXCm, Y: cfg.Controller.TargetYCm}
		return balance.NewVisionSource(loc, pid.New(profile, pidOpts...), target), func() { loc.Close() }, nil

	case config.ModeLocalManual:
		kb, err := keyboard.Open(os.Stdin)
		if err != nil {
			return nil, nil, err
		}
		debug.Info("Keyboard control: W/A/S/D tilt, any other key levels, q quits")
		return balance.NewKeyboardSource(kb, cfg.ManualTiltRad()), func() { kb.Close() }, nil

	case config.ModeRemoteManual:
		port, err := link.Open(cfg.Link.JoystickPort, cfg.Link.BaudRate, cfg.ReadTimeout())
		if err != nil {
			return nil, nil, err
		}
		js := link.NewJoystick(cfg.Link.JoystickPort, port)
		return balance.NewJoystickSource(js), func() { js.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unsupported mode: %s", cfg.Mode)
	}
}

func runInfo(cfg *config.Config, runID string) web.RunInfo {
	info := web.RunInfo{
		Mode:      cfg.Mode,
		Profile:   cfg.Controller.Profile,
		DeadZone:  cfg.Controller.DeadZone,
		TargetCm:  [2]float64{cfg.Controller.TargetXCm, cfg.Controller.TargetYCm},
		TiltMax:   cfg.Bounds.TiltMaxRad,
		ActMin:    cfg.Bounds.ActuatorMinRad,
		ActMax:    cfg.Bounds.ActuatorMaxRad,
		RecordDir: cfg.Defaults.RecordDir,
		RunID:     runID,
	}
	if p, err := pid.ParseProfile(cfg.Controller.Profile); err == nil {
		g := p.Gains()
		info.Gains = [3]float64{g.Kp, g.Ki, g.Kd}
	}
	return info
}

// outcome is the run result stored in the recording metadata.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, balance.ErrOperatorQuit):
		return "operator_quit"
	default:
		return err.Error()
	}
}
