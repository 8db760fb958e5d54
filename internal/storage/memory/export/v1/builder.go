package v1

import (
	"math"

	"github.com/airace/carcontrol/internal/geo"
	"github.com/airace/carcontrol/pkg/core"
)

// RunData contains all the data needed to build an export
type RunData struct {
	Run     *core.Run
	Samples []core.TickSample
	Resets  []core.ResetEvent
}

// Build creates an Export from the run data
func Build(data *RunData) Export {
	export := Export{
		FormatVersion: FormatVersion,
		Run: RunHeader{
			Name:      data.Run.Name,
			VehicleID: data.Run.VehicleID,
			Tag:       data.Run.Tag,
			StartTime: data.Run.StartTime,
			TickRate:  data.Run.TickRate,
			Tuning:    data.Run.Tuning,
		},
		Samples: make([][]any, 0, len(data.Samples)),
		Resets:  make([]Reset, 0, len(data.Resets)),
	}
	if export.Run.Tuning == nil {
		export.Run.Tuning = map[string]float64{}
	}
	if o := data.Run.Origin; o != nil {
		export.Run.Origin = []float64{o.Longitude, o.Latitude}
	}

	positions := make([]core.Position3D, 0, len(data.Samples))
	for _, s := range data.Samples {
		export.Samples = append(export.Samples, []any{
			s.Tick,
			round(s.Elapsed, 4),
			round(s.Speed, 4),
			round(s.DriveForce, 4),
			round(s.TurnForce, 4),
			round(s.Yaw, 2),
			[]float64{round(s.Position.X, 3), round(s.Position.Y, 3), round(s.Position.Z, 3)},
			boolToInt(s.ResetPending),
		})
		positions = append(positions, s.Position)

		export.Summary.MaxSpeed = math.Max(export.Summary.MaxSpeed, math.Abs(s.Speed))
		export.Summary.Duration = s.Elapsed
	}
	export.Summary.Ticks = len(data.Samples)

	for _, e := range data.Resets {
		export.Resets = append(export.Resets, Reset{
			Tick:     e.Tick,
			Phase:    e.Phase,
			Category: e.Category,
			Speed:    e.Speed,
			Position: [3]float64{e.Position.X, e.Position.Y, e.Position.Z},
		})
		if e.Phase == core.ResetPhaseTriggered {
			export.Summary.Resets++
		}
	}

	// runs that never moved have no track
	if track, err := geo.Trajectory(positions); err == nil {
		export.Track = track.AsText()
		export.Summary.Distance = track.Length()
		if o := data.Run.Origin; o != nil {
			if gt, err := geo.NewGeoreferencer(*o).Trajectory(positions); err == nil {
				export.GeoTrack = gt.AsText()
			}
		}
	}

	return export
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
