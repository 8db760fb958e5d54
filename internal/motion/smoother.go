package motion

import "math"

// Smooth moves an applied force toward target by at most rate, snapping to the
// target when it is closer than rate. The result is always within [-1, 1].
// A NaN target leaves the force where it is.
func Smooth(current, target, rate float64) float64 {
	force := current
	switch {
	case target > current && target-current < rate:
		force = target
	case target > current:
		force = math.Min(current+rate, target)
	case target < current && current-target < rate:
		force = target
	case target < current:
		force = math.Max(current-rate, target)
	}
	return clampUnit(force)
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-1, math.Min(1, v))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
