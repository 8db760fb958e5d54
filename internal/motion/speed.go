package motion

import "math"

// integrator applies the speed and yaw rules of one Tuning to a State.
type integrator struct {
	t Tuning
}

// stopped is the single "effectively stationary" predicate used everywhere.
func (in integrator) stopped(speed float64) bool {
	return math.Abs(speed) < in.t.AboutZero
}

// setSpeed is the only path that writes State.Speed.
func (in integrator) setSpeed(s *State, v float64) {
	v = math.Max(in.t.MaxReverseSpeed, math.Min(in.t.MaxForwardSpeed, v))
	if in.stopped(v) {
		v = 0
	}
	s.Speed = v
}

// friction pulls speed toward zero without crossing it.
func (in integrator) friction(s *State, dt float64) {
	delta := in.t.FrictionBrake * dt
	switch {
	case s.Speed > 0:
		in.setSpeed(s, math.Max(0, s.Speed-delta))
	case s.Speed < 0:
		in.setSpeed(s, math.Min(0, s.Speed+delta))
	}
}

// drive accelerates along force, or brakes when force opposes the current motion.
func (in integrator) drive(s *State, force, dt float64) {
	force = clampUnit(force)
	if (s.Speed < 0 && force >= 0) || (s.Speed > 0 && force < 0) {
		in.brake(s, force, dt)
		return
	}
	in.setSpeed(s, s.Speed+force*in.t.Acceleration*dt)
}

// brake moves speed toward zero by brakingRate*|intensity|*dt, never past it.
func (in integrator) brake(s *State, intensity, dt float64) {
	delta := in.t.BrakingRate * clamp01(math.Abs(intensity)) * dt
	switch {
	case in.stopped(s.Speed):
		in.setSpeed(s, 0)
	case s.Speed > 0:
		in.setSpeed(s, math.Max(0, s.Speed-delta))
	default:
		in.setSpeed(s, math.Min(0, s.Speed+delta))
	}
}
