package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Operation modes selecting the per-cycle tilt source.
const (
	ModeVision       = "vision"
	ModeLocalManual  = "local_manual"
	ModeRemoteManual = "remote_manual"
)

// CameraConfig describes the capture device.
type CameraConfig struct {
	Index           int  `yaml:"index"`             // OpenCV device index
	WidthPx         int  `yaml:"width_px"`          // requested capture width
	HeightPx        int  `yaml:"height_px"`         // requested capture height
	MaxReadAttempts int  `yaml:"max_read_attempts"` // reads before giving up on a frame
	UnboundedRetry  bool `yaml:"unbounded_retry"`   // retry frame reads forever
	Memory          bool `yaml:"memory"`            // reuse last ball position on a detection miss
}

// DetectorConfig holds the Hough circle parameters.
type DetectorConfig struct {
	DP             float64 `yaml:"dp"`              // inverse accumulator resolution ratio
	MinDistPx      float64 `yaml:"min_dist_px"`     // minimum distance between centers
	CannyThreshold float64 `yaml:"canny_threshold"` // upper Canny threshold
	AccumThreshold float64 `yaml:"accum_threshold"` // accumulator threshold
	MinRadiusPx    int     `yaml:"min_radius_px"`
	MaxRadiusPx    int     `yaml:"max_radius_px"`
}

// ControllerConfig selects the PID profile and its options.
type ControllerConfig struct {
	Profile       string  `yaml:"profile"`        // "disturbance_rejection" or "path_planning"
	DeadZone      bool    `yaml:"dead_zone"`      // suppress tilts below 0.5°
	VerboseErrors bool    `yaml:"verbose_errors"` // log PID terms every cycle
	TargetXCm     float64 `yaml:"target_x_cm"`
	TargetYCm     float64 `yaml:"target_y_cm"`
}

// LinkConfig describes the serial devices.
type LinkConfig struct {
	ActuatorPort  string `yaml:"actuator_port"` // primary actuator controller
	JoystickPort  string `yaml:"joystick_port"` // auxiliary manual-input device
	BaudRate      int    `yaml:"baud_rate"`
	ReadTimeoutMs int    `yaml:"read_timeout_ms"`
}

// HandshakeConfig describes the homing handshake.
type HandshakeConfig struct {
	Sentinel  string `yaml:"sentinel"`   // token reported once homing is done
	TimeoutMs int    `yaml:"timeout_ms"` // give up after this long
	Unbounded bool   `yaml:"unbounded"`  // wait forever
}

// BoundsConfig holds the safety envelope, in radians.
type BoundsConfig struct {
	TiltMinRad     float64 `yaml:"tilt_min_rad"`
	TiltMaxRad     float64 `yaml:"tilt_max_rad"`
	ActuatorMinRad float64 `yaml:"actuator_min_rad"`
	ActuatorMaxRad float64 `yaml:"actuator_max_rad"`
}

// SolverConfig describes the plate mechanics.
type SolverConfig struct {
	PlateRadiusCm float64 `yaml:"plate_radius_cm"` // center to arm attachment
	ArmLengthCm   float64 `yaml:"arm_length_cm"`
}

// ManualConfig configures the keyboard source.
type ManualConfig struct {
	TiltDeg float64 `yaml:"tilt_deg"` // tilt applied while a direction key is pressed
}

// GPIOConfig describes the actuator power enable line.
type GPIOConfig struct {
	Mock      bool `yaml:"mock"`       // use mock GPIO (true=dev/test, false=real Raspberry Pi)
	EnablePin int  `yaml:"enable_pin"` // BCM pin, 0 = not used. Active LOW.
}

// DefaultsConfig contains generic parameters.
type DefaultsConfig struct {
	DebugLevel int    `yaml:"debug_level"` // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
	WebPort    int    `yaml:"web_port"`    // 0 = web monitor disabled
	RecordDir  string `yaml:"record_dir"`  // "" = no recording
}

// Config aggregates all application configuration.
type Config struct {
	Mode       string           `yaml:"mode"`
	Camera     CameraConfig     `yaml:"camera"`
	Detector   DetectorConfig   `yaml:"detector"`
	Controller ControllerConfig `yaml:"controller"`
	Link       LinkConfig       `yaml:"link"`
	Handshake  HandshakeConfig  `yaml:"handshake"`
	Bounds     BoundsConfig     `yaml:"bounds"`
	Solver     SolverConfig     `yaml:"solver"`
	Manual     ManualConfig     `yaml:"manual"`
	GPIO       GPIOConfig       `yaml:"gpio"`
	Defaults   DefaultsConfig   `yaml:"defaults"`
}

// DefaultBounds returns the safety envelope used for any bound the config
// file leaves out.
func DefaultBounds() BoundsConfig {
	return BoundsConfig{
		TiltMinRad:     0,
		TiltMaxRad:     math.Pi / 12,
		ActuatorMinRad: -math.Pi / 2,
		ActuatorMaxRad: math.Pi / 2,
	}
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{Bounds: DefaultBounds()}
	applyDefaults(cfg)
	return cfg
}

// ValidateConfigPath checks that path names a .yaml file directly inside a
// "configs" directory, without traversal.
func ValidateConfigPath(path string) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return fmt.Errorf("config path %q must not contain '..'", path)
		}
	}
	clean := filepath.Clean(path)
	if filepath.Ext(clean) != ".yaml" {
		return fmt.Errorf("config path %q must have a .yaml extension", path)
	}
	if filepath.Base(filepath.Dir(clean)) != "configs" {
		return fmt.Errorf("config path %q must be inside a configs/ directory", path)
	}
	return nil
}

// Load reads a YAML file and returns the configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Zero is a meaningful bound, so bounds are seeded before decoding and
	// keep their default per field when absent from the file.
	cfg := Config{Bounds: DefaultBounds()}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Mode == "" {
		cfg.Mode = ModeVision
	}

	if cfg.Camera.WidthPx <= 0 {
		cfg.Camera.WidthPx = 480
	}
	if cfg.Camera.HeightPx <= 0 {
		cfg.Camera.HeightPx = 480
	}
	if cfg.Camera.MaxReadAttempts <= 0 {
		cfg.Camera.MaxReadAttempts = 100
	}

	if cfg.Detector.DP <= 0 {
		cfg.Detector.DP = 1.2
	}
	if cfg.Detector.MinDistPx <= 0 {
		cfg.Detector.MinDistPx = 50
	}
	if cfg.Detector.CannyThreshold <= 0 {
		cfg.Detector.CannyThreshold = 102
	}
	if cfg.Detector.AccumThreshold <= 0 {
		cfg.Detector.AccumThreshold = 25
	}
	if cfg.Detector.MinRadiusPx <= 0 {
		cfg.Detector.MinRadiusPx = 40
	}
	if cfg.Detector.MaxRadiusPx <= 0 {
		cfg.Detector.MaxRadiusPx = 80
	}

	if cfg.Controller.Profile == "" {
		cfg.Controller.Profile = "path_planning"
	}

	if cfg.Link.BaudRate <= 0 {
		cfg.Link.BaudRate = 115200
	}
	if cfg.Link.ReadTimeoutMs <= 0 {
		cfg.Link.ReadTimeoutMs = 1000
	}

	if cfg.Handshake.Sentinel == "" {
		cfg.Handshake.Sentinel = "HOME"
	}
	if cfg.Handshake.TimeoutMs <= 0 {
		cfg.Handshake.TimeoutMs = 60000
	}

	if cfg.Solver.PlateRadiusCm <= 0 {
		cfg.Solver.PlateRadiusCm = 10
	}
	if cfg.Solver.ArmLengthCm <= 0 {
		cfg.Solver.ArmLengthCm = 4.5
	}

	if cfg.Manual.TiltDeg <= 0 {
		cfg.Manual.TiltDeg = 5
	}
}

// Validate checks value ranges after defaults have been applied.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeVision, ModeLocalManual, ModeRemoteManual:
	default:
		return fmt.Errorf("mode must be one of %s, %s, %s, got %q", ModeVision, ModeLocalManual, ModeRemoteManual, c.Mode)
	}
	if c.Link.ActuatorPort == "" {
		return errors.New("link.actuator_port is required")
	}
	if c.Mode == ModeRemoteManual && c.Link.JoystickPort == "" {
		return errors.New("link.joystick_port is required in remote_manual mode")
	}
	if c.Detector.MinRadiusPx > c.Detector.MaxRadiusPx {
		return fmt.Errorf("detector.min_radius_px (%d) must be <= max_radius_px (%d)", c.Detector.MinRadiusPx, c.Detector.MaxRadiusPx)
	}
	if c.Bounds.TiltMaxRad <= 0 || c.Bounds.TiltMinRad < 0 || c.Bounds.TiltMinRad > c.Bounds.TiltMaxRad {
		return fmt.Errorf("bounds: tilt range [%g, %g] is invalid", c.Bounds.TiltMinRad, c.Bounds.TiltMaxRad)
	}
	if c.Bounds.ActuatorMinRad >= c.Bounds.ActuatorMaxRad {
		return fmt.Errorf("bounds: actuator range [%g, %g] is invalid", c.Bounds.ActuatorMinRad, c.Bounds.ActuatorMaxRad)
	}
	if c.Manual.TiltDeg*math.Pi/180 > c.Bounds.TiltMaxRad {
		return fmt.Errorf("manual.tilt_deg %.2f exceeds the tilt bound %.4f rad", c.Manual.TiltDeg, c.Bounds.TiltMaxRad)
	}
	if c.Defaults.DebugLevel < 0 || c.Defaults.DebugLevel > 4 {
		return fmt.Errorf("debug_level must be between 0 and 4, got %d", c.Defaults.DebugLevel)
	}
	if c.Defaults.WebPort < 0 || c.Defaults.WebPort > 65535 {
		return fmt.Errorf("web_port must be between 0 and 65535, got %d", c.Defaults.WebPort)
	}
	return nil
}

// ReadTimeout returns the serial read timeout.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Link.ReadTimeoutMs) * time.Millisecond
}

// HandshakeTimeout returns how long to wait for the homing sentinel.
// Zero means wait forever.
func (c *Config) HandshakeTimeout() time.Duration {
	if c.Handshake.Unbounded {
		return 0
	}
	return time.Duration(c.Handshake.TimeoutMs) * time.Millisecond
}

// FrameAttempts returns how many reads to try per frame. Zero means no limit.
func (c *Config) FrameAttempts() int {
	if c.Camera.UnboundedRetry {
		return 0
	}
	return c.Camera.MaxReadAttempts
}

// ManualTiltRad returns the keyboard tilt magnitude in radians.
func (c *Config) ManualTiltRad() float64 {
	return c.Manual.TiltDeg * math.Pi / 180
}
