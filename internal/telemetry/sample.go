package telemetry

import "time"

// Sample is one control cycle as seen by observers and the recorder.
type Sample struct {
	Cycle   uint64        `json:"cycle"`
	Elapsed time.Duration `json:"elapsed_ns"`
	Mode    string        `json:"mode"`
	BallX   float64       `json:"ball_x_cm"`
	BallY   float64       `json:"ball_y_cm"`
	DirX    float64       `json:"dir_x"`
	DirY    float64       `json:"dir_y"`
	Theta   float64       `json:"theta_rad"`
	Angles  []float64     `json:"angles_rad"`
}

// Observer receives every dispatched cycle. Implementations must not block.
type Observer interface {
	OnCycle(s Sample)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(s Sample)

func (f ObserverFunc) OnCycle(s Sample) { f(s) }
