package sim

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airace/carcontrol/internal/collision"
	"github.com/airace/carcontrol/pkg/core"
)

func bodyAt(x, z, radius float64) *Body {
	return NewBody(core.Pose{Position: mgl64.Vec3{x, 0.5, z}, Orientation: mgl64.QuatIdent()}, radius)
}

func TestRectArena_Walls(t *testing.T) {
	a := RectArena(10, 20)
	require.Len(t, a.Walls, 4)
	for _, w := range a.Walls {
		assert.Equal(t, "wall", w.Tag)
	}
	assert.Equal(t, mgl64.Vec2{-5, -10}, a.Walls[0].A)
	assert.Equal(t, mgl64.Vec2{-5, -10}, a.Walls[3].B)
}

func TestArena_ReportsWallOnceOnEntry(t *testing.T) {
	a := RectArena(10, 10)
	b := bodyAt(0, 0, 1)

	assert.Empty(t, a.Detect(b))

	b.SetPosition(mgl64.Vec3{0, 0.5, 4.2})
	contacts := a.Detect(b)
	require.Len(t, contacts, 1)
	assert.Equal(t, collision.CategoryWall, contacts[0].Category)
	assert.InDelta(t, 5, contacts[0].Point[2], 1e-9)
	assert.InDelta(t, 0.5, contacts[0].Point[1], 1e-9)

	// still overlapping
	assert.Empty(t, a.Detect(b))

	// leave and come back
	b.SetPosition(mgl64.Vec3{0, 0.5, 0})
	assert.Empty(t, a.Detect(b))
	b.SetPosition(mgl64.Vec3{0, 0.5, 4.5})
	assert.Len(t, a.Detect(b), 1)
}

func TestArena_CornerTouchesTwoWalls(t *testing.T) {
	a := RectArena(10, 10)
	assert.Len(t, a.Detect(bodyAt(4.5, 4.5, 1)), 2)
}

func TestArena_Obstacle(t *testing.T) {
	a := &Arena{}
	a.AddObstacle(Circle{Tag: "car", Center: mgl64.Vec2{10, 0}, Radius: 2})

	assert.Empty(t, a.Detect(bodyAt(0, 0, 1)))

	contacts := a.Detect(bodyAt(7.5, 0, 1))
	require.Len(t, contacts, 1)
	assert.Equal(t, collision.CategoryCar, contacts[0].Category)
	assert.InDelta(t, 8, contacts[0].Point[0], 1e-9)
}

func TestArena_BodyInsideObstacle(t *testing.T) {
	a := &Arena{}
	a.AddObstacle(Circle{Tag: "cone", Center: mgl64.Vec2{0, 0}, Radius: 2})

	contacts := a.Detect(bodyAt(0.5, 0, 0.1))
	require.Len(t, contacts, 1)
	assert.Equal(t, collision.CategoryOther, contacts[0].Category)
	assert.Equal(t, "cone", contacts[0].Tag)
}

func TestClosestOnSegment_Degenerate(t *testing.T) {
	p := closestOnSegment(mgl64.Vec2{3, 3}, mgl64.Vec2{1, 1}, mgl64.Vec2{1, 1})
	assert.Equal(t, mgl64.Vec2{1, 1}, p)
}
