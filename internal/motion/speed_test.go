package motion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetSpeed_ClampsAndSnaps(t *testing.T) {
	in := integrator{t: DefaultTuning()}
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"above forward limit", 45, 30},
		{"below reverse limit", -25, -10},
		{"inside band", 12.5, 12.5},
		{"sub-epsilon positive", 0.009, 0},
		{"sub-epsilon negative", -0.0099, 0},
		{"at epsilon is kept", 0.01, 0.01},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s State
			in.setSpeed(&s, tt.in)
			assert.Equal(t, tt.want, s.Speed)
		})
	}
}

// The original controller had two "stopped" checks: |v| < eps in the brake path
// and |v| - eps < eps in the speed setter. Both now use the narrow form; the
// only behavioural difference is the band [eps, 2*eps), which used to snap.
func TestStoppedPredicate_DriftAgainstWideBand(t *testing.T) {
	in := integrator{t: DefaultTuning()}
	eps := in.t.AboutZero
	wide := func(v float64) bool { return math.Abs(v)-eps < eps }

	for _, v := range []float64{0, 0.005, -0.0099, 0.01, 0.015, -0.0199, 0.02, 0.5, -3} {
		narrow := in.stopped(v)
		inDriftBand := math.Abs(v) >= eps && math.Abs(v) < 2*eps
		if inDriftBand {
			assert.False(t, narrow, "v=%v", v)
			assert.True(t, wide(v), "v=%v", v)
		} else {
			assert.Equal(t, wide(v), narrow, "v=%v", v)
		}
	}
}

func TestFriction_ReducesTowardZero(t *testing.T) {
	tuning := DefaultTuning()
	tuning.FrictionBrake = 10
	in := integrator{t: tuning}

	s := State{Speed: 10}
	in.friction(&s, 0.5)
	assert.InDelta(t, 5.0, s.Speed, 1e-12)

	s = State{Speed: -6}
	in.friction(&s, 0.5)
	assert.InDelta(t, -1.0, s.Speed, 1e-12)
}

func TestFriction_DoesNotCrossZero(t *testing.T) {
	in := integrator{t: DefaultTuning()}

	s := State{Speed: 0.3}
	in.friction(&s, 1)
	assert.Equal(t, 0.0, s.Speed)

	s = State{Speed: -0.3}
	in.friction(&s, 1)
	assert.Equal(t, 0.0, s.Speed)
}

func TestBrake_ClampsAtZero(t *testing.T) {
	tuning := DefaultTuning()
	tuning.BrakingRate = 20
	in := integrator{t: tuning}

	s := State{Speed: 5}
	in.brake(&s, 1.0, 1)
	assert.Equal(t, 0.0, s.Speed)

	s = State{Speed: -5}
	in.brake(&s, 1.0, 1)
	assert.Equal(t, 0.0, s.Speed)
}

func TestBrake_PartialIntensity(t *testing.T) {
	in := integrator{t: DefaultTuning()}

	s := State{Speed: 20}
	in.brake(&s, 0.5, 0.5) // 20 * 0.5 * 0.5 = 5
	assert.InDelta(t, 15.0, s.Speed, 1e-12)

	s = State{Speed: 20}
	in.brake(&s, -0.5, 0.5) // sign of intensity is ignored
	assert.InDelta(t, 15.0, s.Speed, 1e-12)

	s = State{Speed: 20}
	in.brake(&s, 7, 0.5) // intensity clamps to 1
	assert.InDelta(t, 10.0, s.Speed, 1e-12)
}

func TestBrake_IdempotentAtZero(t *testing.T) {
	in := integrator{t: DefaultTuning()}
	s := State{Speed: 0.004}
	for i := 0; i < 10; i++ {
		in.brake(&s, DefaultBrakeIntensity, 1.0/60.0)
		assert.Equal(t, 0.0, s.Speed)
	}
}

func TestBrake_ReachesExactZero(t *testing.T) {
	in := integrator{t: DefaultTuning()}
	s := State{Speed: 0.015}
	for i := 0; i < 1000 && s.Speed != 0; i++ {
		in.brake(&s, 0.01, 1.0/120.0)
	}
	assert.Equal(t, 0.0, s.Speed)
}

func TestDrive_Accelerates(t *testing.T) {
	in := integrator{t: DefaultTuning()}

	s := State{}
	in.drive(&s, 0.05, 1)
	assert.InDelta(t, 1.5, s.Speed, 1e-12)

	s = State{}
	in.drive(&s, -0.5, 0.1) // from rest, negative force reverses
	assert.InDelta(t, -1.5, s.Speed, 1e-12)

	s = State{Speed: 29}
	in.drive(&s, 1, 1)
	assert.Equal(t, 30.0, s.Speed)
}

func TestDrive_OpposingForceBrakes(t *testing.T) {
	in := integrator{t: DefaultTuning()}

	s := State{Speed: 10}
	in.drive(&s, -0.5, 0.5) // brake 20 * 0.5 * 0.5 = 5
	assert.InDelta(t, 5.0, s.Speed, 1e-12)

	s = State{Speed: -8}
	in.drive(&s, 1, 0.25) // brake 20 * 1 * 0.25 = 5
	assert.InDelta(t, -3.0, s.Speed, 1e-12)

	s = State{Speed: -8}
	in.drive(&s, 0, 0.25) // zero force while reversing is a zero-intensity brake
	assert.InDelta(t, -8.0, s.Speed, 1e-12)

	s = State{Speed: 2}
	in.drive(&s, -1, 1) // never brakes through zero into reverse
	assert.Equal(t, 0.0, s.Speed)
}
