package motion

// relativeSpeed is speed as a fraction of the limit in its direction of travel.
// Reversing divides two negatives, so the ratio stays non-negative and the yaw
// sign for a given turn force is unchanged. Because the car moves backwards,
// the path then curves the opposite way to forward driving, as real steering
// does in reverse.
func (in integrator) relativeSpeed(speed float64) float64 {
	switch {
	case speed > 0:
		return speed / in.t.MaxForwardSpeed
	case speed < 0 && in.t.MaxReverseSpeed < 0:
		return speed / in.t.MaxReverseSpeed
	default:
		return 0
	}
}

// yawDelta is the heading change in degrees for one turn step.
func (in integrator) yawDelta(speed, force, dt float64) float64 {
	return clampUnit(force) * in.t.SteeringRate * in.relativeSpeed(speed) * dt
}
