package motion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSmooth(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		target  float64
		rate    float64
		want    float64
	}{
		{"snap up within rate", 0.5, 0.52, 0.05, 0.52},
		{"step up", 0, 1, 0.05, 0.05},
		{"snap down within rate", 0.5, 0.48, 0.05, 0.48},
		{"step down", 0, -1, 0.05, -0.05},
		{"equal", 0.3, 0.3, 0.05, 0.3},
		{"target above range clamps", 0.98, 5, 0.05, 1},
		{"target below range clamps", -0.98, -5, 0.05, -1},
		{"zero rate holds", 0.2, 1, 0, 0.2},
		{"NaN target holds", 0.4, math.NaN(), 0.05, 0.4},
		{"infinite target steps", 0, math.Inf(1), 0.05, 0.05},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Smooth(tt.current, tt.target, tt.rate), 1e-12)
		})
	}
}

func TestSmooth_AlwaysWithinUnitRange(t *testing.T) {
	targets := []float64{-1000, -1.5, -1, 0, 1, 1.0001, 42, math.Inf(-1), math.Inf(1)}
	for _, target := range targets {
		force := 0.0
		for i := 0; i < 100; i++ {
			force = Smooth(force, target, 0.3)
			if force < -1 || force > 1 {
				t.Fatalf("force %v escaped [-1, 1] for target %v", force, target)
			}
		}
	}
}

func TestSmooth_ConvergesWithoutOvershoot(t *testing.T) {
	cases := []struct{ initial, target, rate float64 }{
		{0, 1, 0.05},
		{0, 0.8, 0.05},
		{1, -1, 0.05},
		{-0.3, 0.37, 0.1},
		{0.9, 0.1, 0.25},
	}
	for _, tc := range cases {
		limit := int(math.Ceil(math.Abs(tc.initial-tc.target) / tc.rate))
		force := tc.initial
		reached := -1
		for tick := 1; tick <= limit+1; tick++ {
			prev := force
			force = Smooth(force, tc.target, tc.rate)
			if tc.target > tc.initial {
				assert.LessOrEqual(t, force, tc.target, "overshoot %+v", tc)
				assert.GreaterOrEqual(t, force, prev)
			} else {
				assert.GreaterOrEqual(t, force, tc.target, "overshoot %+v", tc)
				assert.LessOrEqual(t, force, prev)
			}
			if force == tc.target && reached < 0 {
				reached = tick
			}
		}
		assert.True(t, reached > 0 && reached <= limit, "%+v reached at tick %d, limit %d", tc, reached, limit)
	}
}
