package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scalper/internal/model"
)

func feed(d *Detector, base time.Time, step time.Duration, prices ...float64) time.Time {
	at := base
	for _, p := range prices {
		d.AddSample(p, at)
		at = at.Add(step)
	}
	return at.Add(-step)
}

func TestEvaluateTooFewSamples(t *testing.T) {
	d := NewDetector("WIF")
	base := time.Now()
	last := feed(d, base, time.Second, 1.00, 1.01, 1.02, 1.03)

	sig := d.Evaluate(last)
	assert.False(t, sig.Valid)
	assert.Zero(t, sig.Velocity)
	assert.Zero(t, sig.Acceleration)
	assert.Zero(t, sig.PredictedChangePct)
	assert.Zero(t, sig.Confidence)
}

func TestEvaluateAcceleratingRise(t *testing.T) {
	d := NewDetector("WIF")
	base := time.Now()
	last := feed(d, base, time.Second, 1.000, 1.002, 1.005, 1.009, 1.014)

	sig := d.Evaluate(last)
	require.True(t, sig.Valid)
	assert.InDelta(t, 0.0035, sig.Velocity, 1e-9)
	assert.Greater(t, sig.Acceleration, 0.0)
	assert.Greater(t, sig.PredictedChangePct, 0.8)
	assert.InDelta(t, 1.0, sig.Confidence, 1e-9)
	assert.False(t, sig.HasReversal)
}

func TestEvaluateReversalInvalidates(t *testing.T) {
	// Single-step drop of 0.3% exceeds the 0.2% reversal tolerance.
	d := NewDetector("WIF")
	base := time.Now()
	last := feed(d, base, time.Second, 1.00, 1.00, 0.997, 1.00, 1.00)

	sig := d.Evaluate(last)
	assert.True(t, sig.HasReversal)
	assert.False(t, sig.Valid)
	assert.Less(t, sig.Confidence, minConfidence)
}

func TestEvaluateNonAdvancingClock(t *testing.T) {
	d := NewDetector("WIF")
	at := time.Now()
	for _, p := range []float64{1.00, 1.01, 1.02, 1.03, 1.04} {
		d.AddSample(p, at)
	}

	sig := d.Evaluate(at)
	assert.False(t, sig.Valid)
	assert.Zero(t, sig.Velocity)
}

func TestEvaluateFlatMarket(t *testing.T) {
	d := NewDetector("WIF")
	base := time.Now()
	last := feed(d, base, time.Second, 1.0, 1.0, 1.0, 1.0, 1.0)

	sig := d.Evaluate(last)
	assert.False(t, sig.Valid)
	assert.Zero(t, sig.Velocity)
	assert.False(t, sig.HasReversal)
}

func TestDetectorWindowBounded(t *testing.T) {
	d := NewDetector("WIF")
	base := time.Now()
	for i := 0; i < model.HistoryCap+7; i++ {
		d.AddSample(1.0, base.Add(time.Duration(i)*time.Second))
	}
	assert.Len(t, d.samples, model.HistoryCap)
}

func TestMomentumMatchesManualComputation(t *testing.T) {
	base := time.Now()
	samples := []model.PriceSample{
		{Price: 1.000, At: base},
		{Price: 1.002, At: base.Add(1 * time.Second)},
		{Price: 1.005, At: base.Add(2 * time.Second)},
		{Price: 1.009, At: base.Add(3 * time.Second)},
		{Price: 1.014, At: base.Add(4 * time.Second)},
	}

	velocity, acceleration, ok := Momentum(samples)
	require.True(t, ok)

	firstVel := ((1.005 - 1.000) / 1.000) / 2
	secondVel := ((1.014 - 1.005) / 1.005) / 2
	assert.InDelta(t, ((1.014-1.000)/1.000)/4, velocity, 1e-12)
	assert.InDelta(t, (secondVel-firstVel)/2, acceleration, 1e-12)
}
