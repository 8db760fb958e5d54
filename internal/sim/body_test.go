package sim

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"

	"github.com/airace/carcontrol/pkg/core"
)

func TestBody_RotateByTurnsForwardTowardX(t *testing.T) {
	b := NewBody(core.SpawnPose(), 1)

	b.RotateBy(90)

	f := core.Forward(b.Orientation())
	assert.InDelta(t, 1, f[0], 1e-9)
	assert.InDelta(t, 0, f[2], 1e-9)
	assert.InDelta(t, 90, core.Yaw(b.Orientation()), 1e-9)

	b.RotateBy(-180)
	assert.InDelta(t, -90, core.Yaw(b.Orientation()), 1e-9)
}

func TestBody_SettersStoreState(t *testing.T) {
	b := NewBody(core.SpawnPose(), 0.8)

	b.SetPosition(mgl64.Vec3{1, 2, 3})
	b.SetVelocity(mgl64.Vec3{0, 0, 4})
	b.SetOrientation(mgl64.Quat{W: 2})

	assert.Equal(t, mgl64.Vec3{1, 2, 3}, b.Position())
	assert.Equal(t, mgl64.Vec3{0, 0, 4}, b.Velocity())
	assert.InDelta(t, 1, b.Orientation().Len(), 1e-12)
	assert.Equal(t, 0.8, b.Radius())
	assert.Equal(t, b.Position(), b.Pose().Position)
}

func TestFixedRate(t *testing.T) {
	assert.InDelta(t, 0.02, FixedRate(50).DeltaTime(), 1e-12)
	assert.Zero(t, FixedRate(0).DeltaTime())
	assert.Zero(t, FixedRate(-5).DeltaTime())
}
