//go:build !nocv

package main

import (
	"github.com/cjeanneret/ballplate/internal/config"
	"github.com/cjeanneret/ballplate/internal/hw/camera/opencv"
	"github.com/cjeanneret/ballplate/internal/logic/vision"
)

func newLocator(cfg *config.Config) (*vision.Locator, error) {
	cam, err := opencv.Open(cfg.Camera.Index, cfg.Camera.WidthPx, cfg.Camera.HeightPx)
	if err != nil {
		return nil, err
	}
	det := opencv.NewHoughDetector(opencv.HoughParams{
		DP:             cfg.Detector.DP,
		MinDist:        cfg.Detector.MinDistPx,
		CannyThreshold: cfg.Detector.CannyThreshold,
		AccumThreshold: cfg.Detector.AccumThreshold,
		MinRadius:      cfg.Detector.MinRadiusPx,
		MaxRadius:      cfg.Detector.MaxRadiusPx,
	})
	return vision.NewLocator(cam, det, vision.Config{
		MaxReadAttempts: cfg.FrameAttempts(),
		Memory:          cfg.Camera.Memory,
	}), nil
}
