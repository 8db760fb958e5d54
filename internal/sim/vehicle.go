package sim

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/airace/carcontrol/internal/collision"
	"github.com/airace/carcontrol/internal/input"
	"github.com/airace/carcontrol/internal/motion"
	"github.com/airace/carcontrol/pkg/core"
)

// Vehicle ties a controller to a headless body and, optionally, an arena that
// feeds it contacts. Not safe for concurrent use.
type Vehicle struct {
	ID         string
	Body       *Body
	Arena      *Arena
	Controller *motion.Controller

	now     func() time.Time
	elapsed float64
	resets  []core.ResetEvent
}

// VehicleConfig describes a vehicle to build.
type VehicleConfig struct {
	ID     string
	Tuning motion.Tuning
	Spawn  core.Pose
	Radius float64
	Clock  motion.Clock
	Arena  *Arena // nil for open ground
}

// StepResult is what one tick produced.
type StepResult struct {
	Sample   core.TickSample
	Resets   []core.ResetEvent   // transitions that happened during the tick
	Contacts []collision.Contact // contacts detected after the move, handled next tick
}

// NewVehicle spawns a vehicle. opts are passed to the controller; a
// transition callback given there is replaced by the vehicle's own.
func NewVehicle(cfg VehicleConfig, opts ...motion.Option) (*Vehicle, error) {
	if cfg.Spawn.Orientation == (mgl64.Quat{}) {
		cfg.Spawn.Orientation = mgl64.QuatIdent()
	}
	v := &Vehicle{
		ID:    cfg.ID,
		Body:  NewBody(cfg.Spawn, cfg.Radius),
		Arena: cfg.Arena,
		now:   time.Now,
	}

	opts = append(opts, motion.WithSpawn(cfg.Spawn), motion.OnTransition(v.onTransition))
	c, err := motion.New(cfg.Tuning, v.Body, cfg.Clock, opts...)
	if err != nil {
		return nil, err
	}
	v.Controller = c
	return v, nil
}

// Observe returns what an intent source sees before the next tick.
func (v *Vehicle) Observe() input.Observation {
	return input.Observation{
		Tick:            v.Controller.Tick(),
		Speed:           v.Controller.Speed(),
		NormalizedSpeed: v.Controller.NormalizedSpeed(),
		Pose:            v.Body.Pose(),
		ResetPending:    v.Controller.ResetPending(),
	}
}

// Step runs one controller tick, then checks the arena for new contacts.
func (v *Vehicle) Step(in core.Intent) StepResult {
	v.resets = v.resets[:0]
	v.Controller.Step(in)
	v.elapsed += v.Controller.DeltaTime()

	var contacts []collision.Contact
	if v.Arena != nil {
		contacts = v.Arena.Detect(v.Body)
		for _, ct := range contacts {
			v.Controller.NotifyContact(ct)
		}
	}

	res := StepResult{
		Sample:   v.sample(in),
		Contacts: contacts,
	}
	if len(v.resets) > 0 {
		res.Resets = append([]core.ResetEvent(nil), v.resets...)
	}
	return res
}

// Elapsed is the simulated time in seconds since spawn.
func (v *Vehicle) Elapsed() float64 { return v.elapsed }

func (v *Vehicle) sample(in core.Intent) core.TickSample {
	pose := v.Body.Pose()
	return core.TickSample{
		Tick:            uint(v.Controller.Tick()),
		Time:            v.now(),
		Elapsed:         v.elapsed,
		DeltaTime:       v.Controller.DeltaTime(),
		Speed:           v.Controller.Speed(),
		NormalizedSpeed: v.Controller.NormalizedSpeed(),
		DriveForce:      v.Controller.DriveForce(),
		TurnForce:       v.Controller.TurnForce(),
		Yaw:             core.Yaw(pose.Orientation),
		Position:        core.PositionFromVec(pose.Position),
		ResetPending:    v.Controller.ResetPending(),
		Intent:          in,
	}
}

func (v *Vehicle) onTransition(t motion.Transition) {
	ev := core.ResetEvent{
		Tick:     uint(t.Tick),
		Time:     v.now(),
		Speed:    t.Speed,
		Position: core.PositionFromVec(v.Body.Position()),
	}
	if t.To == motion.PhaseResetPending {
		ev.Phase = core.ResetPhaseTriggered
		ev.Category = t.Contact.Category.String()
	} else {
		ev.Phase = core.ResetPhaseCompleted
	}
	v.resets = append(v.resets, ev)
}
