//go:build nocv

package main

import (
	"errors"

	"github.com/cjeanneret/ballplate/internal/config"
	"github.com/cjeanneret/ballplate/internal/logic/vision"
)

// errNoCamera is returned by builds without OpenCV; only the manual modes work.
var errNoCamera = errors.New("built without OpenCV (nocv tag): vision mode and locate are unavailable")

func newLocator(cfg *config.Config) (*vision.Locator, error) {
	return nil, errNoCamera
}
