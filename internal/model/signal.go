package model

import "time"

// MomentumSignal is the detector's judgment for one symbol at one tick.
// It is ephemeral: consumed immediately by the engine or discarded.
type MomentumSignal struct {
	Symbol             string
	Velocity           float64
	Acceleration       float64
	PredictedChangePct float64
	Confidence         float64
	HasReversal        bool
	Valid              bool
	At                 time.Time
}
