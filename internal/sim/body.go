// Package sim provides a headless stand-in for the physics engine: a kinematic
// body, an arena that reports trigger contacts, clocks and a run loop.
package sim

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/airace/carcontrol/pkg/core"
)

var up = mgl64.Vec3{0, 1, 0}

// Body is a kinematic rigid body. It stores what it is told and never resolves
// contacts on its own.
type Body struct {
	position    mgl64.Vec3
	orientation mgl64.Quat
	velocity    mgl64.Vec3
	radius      float64
}

// NewBody places a body of the given collision radius at pose.
func NewBody(pose core.Pose, radius float64) *Body {
	return &Body{
		position:    pose.Position,
		orientation: pose.Orientation.Normalize(),
		radius:      radius,
	}
}

func (b *Body) Position() mgl64.Vec3    { return b.position }
func (b *Body) Orientation() mgl64.Quat { return b.orientation }
func (b *Body) Velocity() mgl64.Vec3    { return b.velocity }
func (b *Body) Radius() float64         { return b.radius }

func (b *Body) SetPosition(p mgl64.Vec3) { b.position = p }

func (b *Body) SetOrientation(q mgl64.Quat) { b.orientation = q.Normalize() }

func (b *Body) SetVelocity(v mgl64.Vec3) { b.velocity = v }

// RotateBy yaws the body about world up, positive angles turning +Z toward +X.
func (b *Body) RotateBy(yawDegrees float64) {
	delta := mgl64.QuatRotate(mgl64.DegToRad(yawDegrees), up)
	b.orientation = b.orientation.Mul(delta).Normalize()
}

// Pose returns the current position and orientation.
func (b *Body) Pose() core.Pose {
	return core.Pose{Position: b.position, Orientation: b.orientation}
}
