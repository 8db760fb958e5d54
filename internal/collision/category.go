// Package collision models contact notifications delivered by the physics
// collaborator: a tagged category, the policy that decides what a contact does
// to a vehicle, and the single-slot mailbox that hands contacts to the tick loop.
package collision

import (
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// Category is the kind of object a vehicle touched.
type Category uint8

const (
	CategoryOther Category = iota
	CategoryWall
	CategoryCar
)

// ParseCategory maps a collider tag to a Category. Unknown tags are CategoryOther.
func ParseCategory(tag string) Category {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "wall":
		return CategoryWall
	case "car":
		return CategoryCar
	default:
		return CategoryOther
	}
}

func (c Category) String() string {
	switch c {
	case CategoryWall:
		return "wall"
	case CategoryCar:
		return "car"
	default:
		return "other"
	}
}

// Contact is a single trigger event from the physics collaborator.
type Contact struct {
	Category Category
	Tag      string     // raw collider tag as reported
	Point    mgl64.Vec3 // vehicle position when the contact fired
}

// NewContact builds a Contact from a raw collider tag.
func NewContact(tag string, point mgl64.Vec3) Contact {
	return Contact{Category: ParseCategory(tag), Tag: tag, Point: point}
}
