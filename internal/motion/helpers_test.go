package motion

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

// fakeBody is an in-memory Transform that records what the controller wrote.
type fakeBody struct {
	pos       mgl64.Vec3
	rot       mgl64.Quat
	vel       mgl64.Vec3
	yawCalls  []float64
	moveCalls int
}

func newFakeBody() *fakeBody {
	return &fakeBody{rot: mgl64.QuatIdent(), vel: mgl64.Vec3{1, 1, 1}}
}

func (b *fakeBody) Position() mgl64.Vec3    { return b.pos }
func (b *fakeBody) Orientation() mgl64.Quat { return b.rot }
func (b *fakeBody) SetPosition(p mgl64.Vec3) {
	b.pos = p
	b.moveCalls++
}
func (b *fakeBody) SetOrientation(q mgl64.Quat) { b.rot = q }
func (b *fakeBody) SetVelocity(v mgl64.Vec3)    { b.vel = v }
func (b *fakeBody) RotateBy(deg float64) {
	b.yawCalls = append(b.yawCalls, deg)
	b.rot = b.rot.Mul(mgl64.QuatRotate(mgl64.DegToRad(deg), mgl64.Vec3{0, 1, 0})).Normalize()
}

// stepClock returns a fixed delta every tick.
type stepClock struct{ dt float64 }

func (c *stepClock) DeltaTime() float64 { return c.dt }

func newTestController(t *testing.T, tuning Tuning, dt float64, opts ...Option) (*Controller, *fakeBody, *stepClock) {
	t.Helper()
	body := newFakeBody()
	clock := &stepClock{dt: dt}
	c, err := New(tuning, body, clock, opts...)
	require.NoError(t, err)
	return c, body, clock
}
