package input

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/airace/carcontrol/pkg/core"
)

// Cruise is a simple autopilot: it holds a target normalized speed and steers
// toward a loop of waypoints in the X/Z plane. It stands in for the learned
// driver when exercising the controller headless.
type Cruise struct {
	TargetSpeed  float64      // normalized, in [0, 1]
	Gain         float64      // drive per unit of speed error
	BrakeMargin  float64      // brake when this far above target
	SteerRange   float64      // heading error in degrees that maps to full turn
	ArriveRadius float64      // distance at which a waypoint counts as reached
	Waypoints    []mgl64.Vec2 // visited in order, then from the start again

	nextWaypoint int
}

// NewCruise returns a cruise controller with the usual gains.
func NewCruise(target float64, waypoints []mgl64.Vec2) *Cruise {
	return &Cruise{
		TargetSpeed:  mgl64.Clamp(target, 0, 1),
		Gain:         4,
		BrakeMargin:  0.1,
		SteerRange:   30,
		ArriveRadius: 3,
		Waypoints:    waypoints,
	}
}

func (c *Cruise) Next(obs Observation) core.Intent {
	if obs.ResetPending {
		return core.Intent{}
	}

	var in core.Intent
	speedErr := c.TargetSpeed - obs.NormalizedSpeed
	switch {
	case speedErr < -c.BrakeMargin:
		in.Brake = true
		in.BrakeIntensity = mgl64.Clamp(-speedErr*c.Gain, 0, 1)
	default:
		in.Drive = mgl64.Clamp(speedErr*c.Gain, -1, 1)
	}

	in.Turn = c.steer(obs.Pose)
	return in
}

// Waypoint is the index of the waypoint being steered toward.
func (c *Cruise) Waypoint() int { return c.nextWaypoint }

func (c *Cruise) steer(pose core.Pose) float64 {
	if len(c.Waypoints) == 0 || c.SteerRange <= 0 {
		return 0
	}

	pos := mgl64.Vec2{pose.Position[0], pose.Position[2]}
	target := c.Waypoints[c.nextWaypoint]
	if target.Sub(pos).Len() <= c.ArriveRadius {
		c.nextWaypoint = (c.nextWaypoint + 1) % len(c.Waypoints)
		target = c.Waypoints[c.nextWaypoint]
	}

	to := target.Sub(pos)
	if to.Len() == 0 {
		return 0
	}
	desired := mgl64.RadToDeg(math.Atan2(to[0], to[1]))
	return mgl64.Clamp(headingError(desired, core.Yaw(pose.Orientation))/c.SteerRange, -1, 1)
}

// headingError wraps desired-current into (-180, 180].
func headingError(desired, current float64) float64 {
	d := math.Mod(desired-current, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}
