// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"database/sql"
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/airace/carcontrol/internal/model"
	"github.com/airace/carcontrol/pkg/core"
)

// tuningToJSON converts a tuning snapshot to datatypes.JSON for DB storage.
func tuningToJSON(tuning map[string]float64) datatypes.JSON {
	if len(tuning) == 0 {
		return datatypes.JSON("{}")
	}
	data, _ := json.Marshal(tuning)
	return datatypes.JSON(data)
}

// CoreToRun converts a core.Run to a GORM model.Run.
func CoreToRun(r core.Run) model.Run {
	run := model.Run{
		Name:      r.Name,
		VehicleID: r.VehicleID,
		Tag:       r.Tag,
		StartTime: r.StartTime,
		TickRate:  r.TickRate,
		Tuning:    tuningToJSON(r.Tuning),
	}
	run.ID = r.ID
	if r.Origin != nil {
		run.OriginLongitude = sql.NullFloat64{Float64: r.Origin.Longitude, Valid: true}
		run.OriginLatitude = sql.NullFloat64{Float64: r.Origin.Latitude, Valid: true}
	}
	return run
}

// CoreToTickSample converts a core.TickSample to a GORM model.TickSample.
func CoreToTickSample(s core.TickSample) model.TickSample {
	return model.TickSample{
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
		PosX:            s.Position.X,
		PosY:            s.Position.Y,
		PosZ:            s.Position.Z,
		ResetPending:    s.ResetPending,
		Intent: model.Intent{
			Drive:          s.Intent.Drive,
			Turn:           s.Intent.Turn,
			Brake:          s.Intent.Brake,
			BrakeIntensity: s.Intent.BrakeIntensity,
		},
	}
}

// CoreToResetEvent converts a core.ResetEvent to a GORM model.ResetEvent.
func CoreToResetEvent(e core.ResetEvent) model.ResetEvent {
	return model.ResetEvent{
		RunID:    e.RunID,
		Tick:     e.Tick,
		Time:     e.Time,
		Phase:    e.Phase,
		Category: e.Category,
		Speed:    e.Speed,
		PosX:     e.Position.X,
		PosY:     e.Position.Y,
		PosZ:     e.Position.Z,
	}
}
