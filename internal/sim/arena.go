package sim

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/airace/carcontrol/internal/collision"
)

// Segment is a wall collider in the X/Z plane.
type Segment struct {
	Tag string
	A   mgl64.Vec2
	B   mgl64.Vec2
}

// Circle is a round collider in the X/Z plane, typically another car.
type Circle struct {
	Tag    string
	Center mgl64.Vec2
	Radius float64
}

// Arena holds static trigger colliders. Like a trigger volume it reports a
// contact once when a body starts overlapping a collider, not while it stays
// inside. An Arena tracks a single body.
type Arena struct {
	Walls     []Segment
	Obstacles []Circle

	touching map[int]bool
}

// RectArena builds a walled rectangle of the given size centred on the origin.
func RectArena(width, depth float64) *Arena {
	hw, hd := width/2, depth/2
	corners := []mgl64.Vec2{{-hw, -hd}, {hw, -hd}, {hw, hd}, {-hw, hd}}

	a := &Arena{}
	for i := range corners {
		a.Walls = append(a.Walls, Segment{
			Tag: "wall",
			A:   corners[i],
			B:   corners[(i+1)%len(corners)],
		})
	}
	return a
}

// AddObstacle places a circular collider.
func (a *Arena) AddObstacle(c Circle) {
	a.Obstacles = append(a.Obstacles, c)
}

// Detect returns contacts for colliders the body entered since the last call.
func (a *Arena) Detect(b *Body) []collision.Contact {
	if a.touching == nil {
		a.touching = make(map[int]bool)
	}

	pos := b.Position()
	p := planar(pos)
	var contacts []collision.Contact

	check := func(id int, tag string, closest mgl64.Vec2, reach float64) {
		inside := closest.Sub(p).Len() <= reach
		if inside && !a.touching[id] {
			contacts = append(contacts, collision.NewContact(tag, mgl64.Vec3{closest[0], pos[1], closest[1]}))
		}
		a.touching[id] = inside
	}

	for i, w := range a.Walls {
		check(i, w.Tag, closestOnSegment(p, w.A, w.B), b.Radius())
	}
	for i, o := range a.Obstacles {
		id := len(a.Walls) + i
		check(id, o.Tag, closestOnCircle(p, o.Center, o.Radius), b.Radius())
	}
	return contacts
}

func planar(v mgl64.Vec3) mgl64.Vec2 {
	return mgl64.Vec2{v[0], v[2]}
}

func closestOnSegment(p, a, b mgl64.Vec2) mgl64.Vec2 {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq == 0 {
		return a
	}
	t := mgl64.Clamp(p.Sub(a).Dot(ab)/lenSq, 0, 1)
	return a.Add(ab.Mul(t))
}

// closestOnCircle returns p itself when p is inside the circle.
func closestOnCircle(p, center mgl64.Vec2, radius float64) mgl64.Vec2 {
	d := p.Sub(center)
	if d.Len() <= radius {
		return p
	}
	return center.Add(d.Normalize().Mul(radius))
}
