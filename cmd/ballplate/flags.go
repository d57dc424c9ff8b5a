package main

import (
	"fmt"
	"strconv"

	"github.com/cjeanneret/ballplate/internal/config"
	"github.com/cjeanneret/ballplate/internal/logic/pid"
)

const defaultWebPort = 8080

// webPortFlag implements pflag.Value for --web: 0 = disabled, --web alone → 8080, --web=8980 → 8980.
type webPortFlag struct {
	val         int
	defaultPort int
}

func (w *webPortFlag) String() string {
	return strconv.Itoa(w.val)
}

func (w *webPortFlag) Set(s string) error {
	if s == "" {
		w.val = w.defaultPort
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if v <= 0 || v > 65535 {
		return fmt.Errorf("port must be 1-65535, got %d", v)
	}
	w.val = v
	return nil
}

func (w *webPortFlag) Type() string { return "port" }

func (w *webPortFlag) port() int { return w.val }

// runOverrides holds the run command flags. Empty values keep the config file's.
type runOverrides struct {
	mode      string
	profile   string
	recordDir string
	webPort   int
}

// applyOverrides mutates cfg and re-validates it.
func applyOverrides(cfg *config.Config, o runOverrides) error {
	if o.mode != "" {
		cfg.Mode = o.mode
	}
	if o.profile != "" {
		if _, err := pid.ParseProfile(o.profile); err != nil {
			return err
		}
		cfg.Controller.Profile = o.profile
	}
	if o.recordDir != "" {
		cfg.Defaults.RecordDir = o.recordDir
	}
	if o.webPort > 0 {
		cfg.Defaults.WebPort = o.webPort
	}
	return cfg.Validate()
}
