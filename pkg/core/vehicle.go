// pkg/core/vehicle.go
package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Position3D is a world-space position in recording-friendly form.
type Position3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// PositionFromVec converts an mgl64 vector.
func PositionFromVec(v mgl64.Vec3) Position3D {
	return Position3D{X: v[0], Y: v[1], Z: v[2]}
}

// Vec returns the position as an mgl64 vector.
func (p Position3D) Vec() mgl64.Vec3 {
	return mgl64.Vec3{p.X, p.Y, p.Z}
}

// Pose is a position plus orientation. Y is up and +Z is the vehicle's forward axis.
type Pose struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
}

// SpawnPose is the canonical pose a vehicle is restored to after a reset.
func SpawnPose() Pose {
	return Pose{
		Position:    mgl64.Vec3{0, 0.5, 0},
		Orientation: mgl64.QuatIdent(),
	}
}

// Forward returns the unit forward vector for an orientation.
func Forward(q mgl64.Quat) mgl64.Vec3 {
	return q.Rotate(mgl64.Vec3{0, 0, 1})
}

// Yaw returns the heading of an orientation in degrees, clockwise from +Z when
// viewed from above, in the range (-180, 180].
func Yaw(q mgl64.Quat) float64 {
	f := Forward(q)
	return mgl64.RadToDeg(math.Atan2(f[0], f[2]))
}

// Intent is one tick's worth of requested control values.
// Drive and Turn are targets in [-1, 1]; values outside are clamped by the controller.
type Intent struct {
	Drive          float64 `json:"drive"`
	Turn           float64 `json:"turn"`
	Brake          bool    `json:"brake"`
	BrakeIntensity float64 `json:"brakeIntensity,omitempty"`
}
