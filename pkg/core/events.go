// pkg/core/events.go
package core

import (
	"time"
)

// Reset phases recorded by ResetEvent.
const (
	ResetPhaseTriggered = "triggered"
	ResetPhaseCompleted = "completed"
)

// TickSample is the observable state of one vehicle after one tick.
type TickSample struct {
	RunID           uint       `json:"runId"`
	Tick            uint       `json:"tick"`
	Time            time.Time  `json:"time"`
	Elapsed         float64    `json:"elapsed"` // seconds since run start
	DeltaTime       float64    `json:"deltaTime"`
	Speed           float64    `json:"speed"`
	NormalizedSpeed float64    `json:"normalizedSpeed"`
	DriveForce      float64    `json:"driveForce"`
	TurnForce       float64    `json:"turnForce"`
	Yaw             float64    `json:"yaw"` // degrees
	Position        Position3D `json:"position"`
	ResetPending    bool       `json:"resetPending"`
	Intent          Intent     `json:"intent"`
}

// ResetEvent marks a transition of the reset sequence.
// Category is only set for triggered events.
type ResetEvent struct {
	RunID    uint       `json:"runId"`
	Tick     uint       `json:"tick"`
	Time     time.Time  `json:"time"`
	Phase    string     `json:"phase"`
	Category string     `json:"category,omitempty"`
	Speed    float64    `json:"speed"`
	Position Position3D `json:"position"`
}
