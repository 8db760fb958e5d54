// Package command exposes a vehicle to an external driver through the
// dispatcher: the driver sets intents, steps the simulation and reads state.
package command

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/airace/carcontrol/internal/collision"
	"github.com/airace/carcontrol/internal/dispatcher"
	"github.com/airace/carcontrol/internal/motion"
	"github.com/airace/carcontrol/internal/sim"
	"github.com/airace/carcontrol/pkg/core"
)

// Command names.
const (
	CmdDrive   = ":DRIVE:"
	CmdTurn    = ":TURN:"
	CmdBrake   = ":BRAKE:"
	CmdStep    = ":STEP:"
	CmdContact = ":CONTACT:"
	CmdState   = ":STATE:"
)

// MaxStep caps the ticks a single :STEP: may run.
const MaxStep = 10000

var (
	ErrMissingArg = errors.New("missing argument")
	ErrBadArg     = errors.New("bad argument")
)

// State is the reply to :STEP: and :STATE:.
type State struct {
	Tick            uint64          `json:"tick"`
	Elapsed         float64         `json:"elapsed"`
	Speed           float64         `json:"speed"`
	NormalizedSpeed float64         `json:"normalizedSpeed"`
	DriveForce      float64         `json:"driveForce"`
	TurnForce       float64         `json:"turnForce"`
	Yaw             float64         `json:"yaw"`
	Position        core.Position3D `json:"position"`
	Phase           string          `json:"phase"`
	Intent          core.Intent     `json:"intent"`
}

// Service holds the intent the driver last asked for and applies it on every
// step until changed.
type Service struct {
	vehicle  *sim.Vehicle
	recorder sim.Recorder
	logger   *slog.Logger

	mu     sync.Mutex
	intent core.Intent
}

// NewService wraps v. recorder may be nil; when set every stepped tick and
// reset transition is recorded.
func NewService(v *sim.Vehicle, recorder sim.Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{vehicle: v, recorder: recorder, logger: logger}
}

// Register installs the handlers. Contacts are queued since physics
// callbacks may arrive from another goroutine; everything else runs inline.
func (s *Service) Register(d *dispatcher.Dispatcher) {
	d.Register(CmdDrive, s.handleDrive)
	d.Register(CmdTurn, s.handleTurn)
	d.Register(CmdBrake, s.handleBrake)
	d.Register(CmdStep, s.handleStep, dispatcher.Logged())
	d.Register(CmdContact, s.handleContact, dispatcher.Buffered(16), dispatcher.Logged())
	d.Register(CmdState, s.handleState)
}

// Intent returns the intent applied on the next step.
func (s *Service) Intent() core.Intent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intent
}

func (s *Service) handleDrive(e dispatcher.Event) (any, error) {
	v, err := floatArg(e, 0)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.intent.Drive = v
	s.mu.Unlock()
	return "ok", nil
}

func (s *Service) handleTurn(e dispatcher.Event) (any, error) {
	v, err := floatArg(e, 0)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.intent.Turn = v
	s.mu.Unlock()
	return "ok", nil
}

// handleBrake takes an optional intensity. Zero releases the brake.
func (s *Service) handleBrake(e dispatcher.Event) (any, error) {
	intensity := motion.DefaultBrakeIntensity
	if len(e.Args) > 0 {
		v, err := floatArg(e, 0)
		if err != nil {
			return nil, err
		}
		intensity = v
	}
	s.mu.Lock()
	s.intent.Brake = intensity != 0
	s.intent.BrakeIntensity = intensity
	s.mu.Unlock()
	return "ok", nil
}

func (s *Service) handleStep(e dispatcher.Event) (any, error) {
	n := 1
	if len(e.Args) > 0 {
		v, err := strconv.Atoi(e.Args[0])
		if err != nil || v < 1 || v > MaxStep {
			return nil, fmt.Errorf("%w: step count %q must be 1..%d", ErrBadArg, e.Args[0], MaxStep)
		}
		n = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n; i++ {
		res := s.vehicle.Step(s.intent)
		s.record(res)
	}
	return s.state(), nil
}

func (s *Service) handleContact(e dispatcher.Event) (any, error) {
	tag := "wall"
	if len(e.Args) > 0 {
		tag = e.Args[0]
	}
	s.mu.Lock()
	pos := s.vehicle.Body.Position()
	s.mu.Unlock()

	s.vehicle.Controller.NotifyContact(collision.NewContact(tag, pos))
	return "ok", nil
}

func (s *Service) handleState(dispatcher.Event) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state(), nil
}

func (s *Service) record(res sim.StepResult) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordTick(&res.Sample); err != nil {
		s.logger.Warn("Failed to record tick", "tick", res.Sample.Tick, "error", err)
	}
	for i := range res.Resets {
		if err := s.recorder.RecordReset(&res.Resets[i]); err != nil {
			s.logger.Warn("Failed to record reset", "tick", res.Resets[i].Tick, "error", err)
		}
	}
}

func (s *Service) state() State {
	c := s.vehicle.Controller
	pose := s.vehicle.Body.Pose()
	return State{
		Tick:            c.Tick(),
		Elapsed:         s.vehicle.Elapsed(),
		Speed:           c.Speed(),
		NormalizedSpeed: c.NormalizedSpeed(),
		DriveForce:      c.DriveForce(),
		TurnForce:       c.TurnForce(),
		Yaw:             core.Yaw(pose.Orientation),
		Position:        core.PositionFromVec(pose.Position),
		Phase:           c.Snapshot().Phase().String(),
		Intent:          s.intent,
	}
}

func floatArg(e dispatcher.Event, i int) (float64, error) {
	if len(e.Args) <= i {
		return 0, fmt.Errorf("%w: %s needs a value", ErrMissingArg, e.Command)
	}
	v, err := strconv.ParseFloat(e.Args[i], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrBadArg, e.Command, e.Args[i])
	}
	return v, nil
}
