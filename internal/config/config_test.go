package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// ---------- ValidateConfigPath ----------

func TestValidateConfigPath_Valid(t *testing.T) {
	cases := []string{
		"configs/default.yaml",
		"/etc/ballplate/configs/bench.yaml",
		filepath.Join(t.TempDir(), "configs", "café plate.yaml"),
	}
	for _, path := range cases {
		if err := ValidateConfigPath(path); err != nil {
			t.Errorf("ValidateConfigPath(%q): unexpected error %v", path, err)
		}
	}
}

func TestValidateConfigPath_Rejected(t *testing.T) {
	cases := []struct {
		name string
		path string
	}{
		{"empty", ""},
		{"traversal", "../../etc/passwd"},
		{"traversal_through_configs", "configs/../../../etc/shadow"},
		{"json_extension", "configs/default.json"},
		{"yml_extension", "configs/default.yml"},
		{"no_extension", "configs/default"},
		{"outside_configs", "other/default.yaml"},
		{"bare_file", "default.yaml"},
		{"tmp", "/tmp/default.yaml"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := ValidateConfigPath(tc.path); err == nil {
				t.Errorf("expected error for %q, got nil", tc.path)
			}
		})
	}
}

func TestValidateConfigPath_VeryLongPath(t *testing.T) {
	long := "configs/" + strings.Repeat("a", 1000) + ".yaml"
	// Must not panic.
	_ = ValidateConfigPath(long)
}

// ---------- Load ----------

// writeConfig creates a temporary configs/ dir with the given YAML content and returns the path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	cfgDir := filepath.Join(t.TempDir(), "configs")
	if err := os.Mkdir(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(cfgDir, "test.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validYAML = `
mode: vision
camera:
  index: 1
  width_px: 640
  height_px: 640
  max_read_attempts: 10
  memory: true
detector:
  dp: 1.5
  min_radius_px: 30
  max_radius_px: 90
controller:
  profile: disturbance_rejection
  dead_zone: true
  verbose_errors: true
link:
  actuator_port: /dev/ttyACM0
  joystick_port: /dev/ttyACM1
  baud_rate: 57600
  read_timeout_ms: 250
handshake:
  sentinel: READY
  timeout_ms: 5000
solver:
  plate_radius_cm: 12
  arm_length_cm: 5
gpio:
  mock: true
  enable_pin: 5
defaults:
  debug_level: 2
  web_port: 8080
  record_dir: runs
`

func TestLoad_ValidFullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Mode != ModeVision {
		t.Errorf("mode = %q, want %q", cfg.Mode, ModeVision)
	}
	if cfg.Camera.Index != 1 || cfg.Camera.WidthPx != 640 || !cfg.Camera.Memory {
		t.Errorf("camera = %+v", cfg.Camera)
	}
	if cfg.Detector.DP != 1.5 || cfg.Detector.MinRadiusPx != 30 || cfg.Detector.MaxRadiusPx != 90 {
		t.Errorf("detector = %+v", cfg.Detector)
	}
	if cfg.Controller.Profile != "disturbance_rejection" || !cfg.Controller.DeadZone || !cfg.Controller.VerboseErrors {
		t.Errorf("controller = %+v", cfg.Controller)
	}
	if cfg.Link.BaudRate != 57600 {
		t.Errorf("baud_rate = %d, want 57600", cfg.Link.BaudRate)
	}
	if cfg.Handshake.Sentinel != "READY" {
		t.Errorf("sentinel = %q, want READY", cfg.Handshake.Sentinel)
	}
	if cfg.Solver.PlateRadiusCm != 12 || cfg.Solver.ArmLengthCm != 5 {
		t.Errorf("solver = %+v", cfg.Solver)
	}
	if cfg.GPIO.EnablePin != 5 || !cfg.GPIO.Mock {
		t.Errorf("gpio = %+v", cfg.GPIO)
	}
	if cfg.Defaults.WebPort != 8080 || cfg.Defaults.RecordDir != "runs" {
		t.Errorf("defaults = %+v", cfg.Defaults)
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, "link:\n  actuator_port: /dev/ttyACM0\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Mode != ModeVision {
		t.Errorf("mode default = %q", cfg.Mode)
	}
	if cfg.Camera.WidthPx != 480 || cfg.Camera.HeightPx != 480 {
		t.Errorf("resolution default = %dx%d, want 480x480", cfg.Camera.WidthPx, cfg.Camera.HeightPx)
	}
	if cfg.Detector.DP != 1.2 || cfg.Detector.MinDistPx != 50 || cfg.Detector.CannyThreshold != 102 ||
		cfg.Detector.AccumThreshold != 25 || cfg.Detector.MinRadiusPx != 40 || cfg.Detector.MaxRadiusPx != 80 {
		t.Errorf("detector defaults = %+v", cfg.Detector)
	}
	if cfg.Controller.Profile != "path_planning" {
		t.Errorf("profile default = %q", cfg.Controller.Profile)
	}
	if cfg.Link.BaudRate != 115200 {
		t.Errorf("baud default = %d, want 115200", cfg.Link.BaudRate)
	}
	if cfg.Handshake.Sentinel != "HOME" {
		t.Errorf("sentinel default = %q, want HOME", cfg.Handshake.Sentinel)
	}
	want := BoundsConfig{TiltMinRad: 0, TiltMaxRad: math.Pi / 12, ActuatorMinRad: -math.Pi / 2, ActuatorMaxRad: math.Pi / 2}
	if cfg.Bounds != want {
		t.Errorf("bounds default = %+v, want %+v", cfg.Bounds, want)
	}
}

func TestLoad_PartialBounds(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want BoundsConfig
	}{
		{
			name: "tilt_max_only",
			yaml: "bounds: {tilt_max_rad: 0.2}\n",
			want: BoundsConfig{TiltMinRad: 0, TiltMaxRad: 0.2, ActuatorMinRad: -math.Pi / 2, ActuatorMaxRad: math.Pi / 2},
		},
		{
			name: "actuator_max_only",
			yaml: "bounds:\n  actuator_max_rad: 1\n",
			want: BoundsConfig{TiltMinRad: 0, TiltMaxRad: math.Pi / 12, ActuatorMinRad: -math.Pi / 2, ActuatorMaxRad: 1},
		},
		{
			name: "empty_block",
			yaml: "bounds:\n",
			want: DefaultBounds(),
		},
		{
			name: "explicit_zero_min",
			yaml: "bounds:\n  actuator_min_rad: 0\n",
			want: BoundsConfig{TiltMinRad: 0, TiltMaxRad: math.Pi / 12, ActuatorMinRad: 0, ActuatorMaxRad: math.Pi / 2},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, "link:\n  actuator_port: /dev/ttyACM0\n"+tc.yaml))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Bounds != tc.want {
				t.Errorf("bounds = %+v, want %+v", cfg.Bounds, tc.want)
			}
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"missing_actuator_port", "mode: vision\n"},
		{"unknown_mode", "mode: autopilot\nlink:\n  actuator_port: a\n"},
		{"remote_without_joystick", "mode: remote_manual\nlink:\n  actuator_port: a\n"},
		{"radius_inverted", "link:\n  actuator_port: a\ndetector:\n  min_radius_px: 90\n  max_radius_px: 40\n"},
		{"tilt_inverted", "link:\n  actuator_port: a\nbounds:\n  tilt_min_rad: 0.3\n  tilt_max_rad: 0.1\n  actuator_min_rad: -1\n  actuator_max_rad: 1\n"},
		{"tilt_max_zero", "link:\n  actuator_port: a\nbounds:\n  tilt_max_rad: 0\n"},
		{"actuator_empty_range", "link:\n  actuator_port: a\nbounds:\n  actuator_min_rad: 0.5\n  actuator_max_rad: 0.5\n"},
		{"actuator_inverted", "link:\n  actuator_port: a\nbounds:\n  actuator_min_rad: 1\n  actuator_max_rad: -1\n"},
		{"manual_tilt_too_large", "link:\n  actuator_port: a\nmanual:\n  tilt_deg: 20\n"},
		{"debug_level", "link:\n  actuator_port: a\ndefaults:\n  debug_level: 9\n"},
		{"web_port", "link:\n  actuator_port: a\ndefaults:\n  web_port: 70000\n"},
		{"bad_yaml", "link: [\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.yaml)); err == nil {
				t.Errorf("expected error, got nil")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "configs", "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

// ---------- Helper methods ----------

func TestConfig_ReadTimeout(t *testing.T) {
	cfg := &Config{Link: LinkConfig{ReadTimeoutMs: 250}}
	if got := cfg.ReadTimeout(); got != 250*time.Millisecond {
		t.Errorf("ReadTimeout() = %v, want 250ms", got)
	}
}

func TestConfig_HandshakeTimeout(t *testing.T) {
	cfg := &Config{Handshake: HandshakeConfig{TimeoutMs: 3000}}
	if got := cfg.HandshakeTimeout(); got != 3*time.Second {
		t.Errorf("HandshakeTimeout() = %v, want 3s", got)
	}
	cfg.Handshake.Unbounded = true
	if got := cfg.HandshakeTimeout(); got != 0 {
		t.Errorf("HandshakeTimeout() with unbounded = %v, want 0", got)
	}
}

func TestConfig_FrameAttempts(t *testing.T) {
	cfg := &Config{Camera: CameraConfig{MaxReadAttempts: 7}}
	if got := cfg.FrameAttempts(); got != 7 {
		t.Errorf("FrameAttempts() = %d, want 7", got)
	}
	cfg.Camera.UnboundedRetry = true
	if got := cfg.FrameAttempts(); got != 0 {
		t.Errorf("FrameAttempts() with unbounded retry = %d, want 0", got)
	}
}

func TestConfig_ManualTiltRad(t *testing.T) {
	cfg := &Config{Manual: ManualConfig{TiltDeg: 180}}
	if got := cfg.ManualTiltRad(); got != math.Pi {
		t.Errorf("ManualTiltRad() = %v, want π", got)
	}
}

func TestDefault_IsValidOnceLinked(t *testing.T) {
	cfg := Default()
	cfg.Link.ActuatorPort = "/dev/ttyACM0"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default() with a port should validate, got %v", err)
	}
}
