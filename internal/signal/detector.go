package signal

import (
	"time"

	"scalper/internal/model"
)

const (
	// computeSamples is the window slice the momentum math runs over.
	computeSamples = 5

	// maxStepDropPct marks a reversal when any consecutive step in the
	// window drops more than this, in percent.
	maxStepDropPct = 0.2

	// projectionSeconds is how far ahead the price is projected.
	projectionSeconds = 5.0

	minPredictedChangePct = 0.8
	minConfidence         = 0.7
	strongVelocity        = 0.0001
)

// AccelerationFloor is the most negative acceleration still treated as
// intact momentum, shared by the entry predicate and the fade exit check.
const AccelerationFloor = -1e-5

// Detector keeps a bounded price window for one symbol and scores momentum.
// State is local to the symbol instance; the detector has no side effects
// beyond the signals it returns.
type Detector struct {
	symbol  string
	samples []model.PriceSample
}

// NewDetector creates a detector for a symbol.
func NewDetector(symbol string) *Detector {
	return &Detector{
		symbol:  symbol,
		samples: make([]model.PriceSample, 0, model.HistoryCap),
	}
}

// Symbol returns the symbol this detector tracks.
func (d *Detector) Symbol() string {
	return d.symbol
}

// AddSample records one (price, timestamp) observation, keeping the last
// model.HistoryCap entries. Non-positive prices are ignored.
func (d *Detector) AddSample(price float64, at time.Time) {
	if price <= 0 {
		return
	}
	d.samples = append(d.samples, model.PriceSample{Price: price, At: at})
	if len(d.samples) > model.HistoryCap {
		d.samples = d.samples[len(d.samples)-model.HistoryCap:]
	}
}

// Evaluate scores the current window and returns a fresh signal.
func (d *Detector) Evaluate(now time.Time) model.MomentumSignal {
	sig := model.MomentumSignal{Symbol: d.symbol, At: now}
	if len(d.samples) < computeSamples {
		return sig
	}

	window := d.samples[len(d.samples)-computeSamples:]
	velocity, acceleration, ok := Momentum(window)
	if !ok {
		return sig
	}

	sig.Velocity = velocity
	sig.Acceleration = acceleration
	sig.HasReversal = hasReversal(window)

	t := projectionSeconds
	sig.PredictedChangePct = (velocity*t + 0.5*acceleration*t*t) * 100
	sig.Confidence = confidence(velocity, acceleration, sig.HasReversal, len(window) == computeSamples)

	sig.Valid = velocity > 0 &&
		acceleration >= AccelerationFloor &&
		sig.PredictedChangePct >= minPredictedChangePct &&
		sig.Confidence >= minConfidence &&
		!sig.HasReversal
	return sig
}

// Momentum computes velocity and acceleration over a sample window using
// the split-half method: velocity over the full span, acceleration as the
// velocity delta between halves divided by the second half's span.
// ok is false when the window is too short or timestamps do not advance.
func Momentum(samples []model.PriceSample) (velocity, acceleration float64, ok bool) {
	if len(samples) < computeSamples {
		return 0, 0, false
	}
	w := samples[len(samples)-computeSamples:]
	mid := len(w) / 2

	velocity, ok = spanVelocity(w[0], w[len(w)-1])
	if !ok {
		return 0, 0, false
	}
	firstVel, ok := spanVelocity(w[0], w[mid])
	if !ok {
		return 0, 0, false
	}
	secondVel, ok := spanVelocity(w[mid], w[len(w)-1])
	if !ok {
		return 0, 0, false
	}

	secondSpan := w[len(w)-1].At.Sub(w[mid].At).Seconds()
	acceleration = (secondVel - firstVel) / secondSpan
	return velocity, acceleration, true
}

func spanVelocity(from, to model.PriceSample) (float64, bool) {
	elapsed := to.At.Sub(from.At).Seconds()
	if elapsed <= 0 || from.Price <= 0 {
		return 0, false
	}
	return ((to.Price - from.Price) / from.Price) / elapsed, true
}

func hasReversal(window []model.PriceSample) bool {
	for i := 1; i < len(window); i++ {
		prev := window[i-1].Price
		if prev <= 0 {
			continue
		}
		dropPct := (prev - window[i].Price) / prev * 100
		if dropPct > maxStepDropPct {
			return true
		}
	}
	return false
}

func confidence(velocity, acceleration float64, reversal, fullWindow bool) float64 {
	score := 0.0
	if velocity > 0 && !reversal {
		score += 0.5
	}
	if acceleration >= 0 {
		score += 0.2
	}
	if velocity > strongVelocity {
		score += 0.2
	}
	if fullWindow {
		score += 0.1
	}
	return score
}
