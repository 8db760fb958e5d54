// Package input produces per-tick control intents for a vehicle.
package input

import (
	"github.com/airace/carcontrol/pkg/core"
)

// Observation is what an intent source may look at before choosing an intent.
type Observation struct {
	Tick            uint64
	Speed           float64
	NormalizedSpeed float64
	Pose            core.Pose
	ResetPending    bool
}

// Source chooses the intent for the next tick.
type Source interface {
	Next(obs Observation) core.Intent
}

// SourceFunc adapts a plain function to Source.
type SourceFunc func(Observation) core.Intent

func (f SourceFunc) Next(obs Observation) core.Intent { return f(obs) }

// Idle never asks for anything.
var Idle Source = SourceFunc(func(Observation) core.Intent { return core.Intent{} })
