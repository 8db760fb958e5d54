package convert

import (
	"github.com/airace/carcontrol/internal/model"
	"github.com/airace/carcontrol/pkg/core"
)

// TickSampleToCore converts a stored sample back to its core form.
func TickSampleToCore(s model.TickSample) core.TickSample {
	return core.TickSample{
		RunID:           s.RunID,
		Tick:            s.Tick,
		Time:            s.Time,
		Elapsed:         s.Elapsed,
		DeltaTime:       s.DeltaTime,
		Speed:           s.Speed,
		NormalizedSpeed: s.NormalizedSpeed,
		DriveForce:      s.DriveForce,
		TurnForce:       s.TurnForce,
		Yaw:             s.Yaw,
		Position:        core.Position3D{X: s.PosX, Y: s.PosY, Z: s.PosZ},
		ResetPending:    s.ResetPending,
		Intent: core.Intent{
			Drive:          s.Intent.Drive,
			Turn:           s.Intent.Turn,
			Brake:          s.Intent.Brake,
			BrakeIntensity: s.Intent.BrakeIntensity,
		},
	}
}
