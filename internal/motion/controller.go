// Package motion implements the per-tick vehicle motion controller: force
// smoothing, speed and yaw integration, and the contact-triggered reset sequence.
//
// A tick is Begin, then Drive, Brake and Turn in that order, then End. Step runs a whole tick
// from a single core.Intent.
package motion

import (
	"errors"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/airace/carcontrol/internal/collision"
	"github.com/airace/carcontrol/pkg/core"
)

// Transform is the physics/transform collaborator that owns the vehicle's pose.
type Transform interface {
	Position() mgl64.Vec3
	Orientation() mgl64.Quat
	// SetPosition moves the body, respecting the physics system's constraints.
	SetPosition(p mgl64.Vec3)
	SetOrientation(q mgl64.Quat)
	SetVelocity(v mgl64.Vec3)
	// RotateBy yaws the body about its up axis.
	RotateBy(yawDegrees float64)
}

// Clock reports the seconds elapsed since the previous tick.
type Clock interface {
	DeltaTime() float64
}

// Transition describes a change of reset phase.
type Transition struct {
	From    Phase
	To      Phase
	Tick    uint64
	Contact collision.Contact // set when entering PhaseResetPending
	Speed   float64
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger for phase changes and rejected frame deltas.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSpawn overrides the canonical pose restored after a reset.
func WithSpawn(p core.Pose) Option {
	return func(c *Controller) {
		c.spawn = p
	}
}

// WithPolicy overrides which contacts trigger a reset.
func WithPolicy(p collision.Policy) Option {
	return func(c *Controller) {
		c.policy = p
	}
}

// OnTransition registers a callback invoked synchronously on every phase change.
func OnTransition(fn func(Transition)) Option {
	return func(c *Controller) {
		c.onTransition = fn
	}
}

// Controller drives one vehicle. It is not safe for concurrent use except for
// NotifyContact, which may be called from any goroutine.
type Controller struct {
	tuning   Tuning
	integ    integrator
	body     Transform
	clock    Clock
	spawn    core.Pose
	policy   collision.Policy
	contacts collision.Slot

	logger       *slog.Logger
	onTransition func(Transition)

	state State
	dt    float64
	tick  uint64
}

// New validates tuning and builds a stationary controller.
func New(tuning Tuning, body Transform, clock Clock, opts ...Option) (*Controller, error) {
	if err := tuning.Validate(); err != nil {
		return nil, err
	}
	if body == nil {
		return nil, errors.New("motion: nil transform")
	}
	if clock == nil {
		return nil, errors.New("motion: nil clock")
	}

	c := &Controller{
		tuning: tuning,
		integ:  integrator{t: tuning},
		body:   body,
		clock:  clock,
		spawn:  core.SpawnPose(),
		policy: collision.DefaultPolicy(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Begin starts a tick: it samples the clock, consumes any pending contact and
// runs either the forced reset brake or passive friction.
func (c *Controller) Begin() {
	c.tick++
	c.dt = c.sampleDelta()
	c.consumeContact()

	if c.state.ResetPending {
		c.advanceReset()
		return
	}
	if c.state.Speed != 0 {
		c.integ.friction(&c.state, c.dt)
	}
}

// Drive smooths the applied drive force toward target and, unless a reset is
// pending, accelerates or brakes with it.
func (c *Controller) Drive(target float64) {
	c.state.DriveForce = Smooth(c.state.DriveForce, target, c.forceRate())
	if c.state.ResetPending {
		return
	}
	c.integ.drive(&c.state, c.state.DriveForce, c.dt)
}

// Turn smooths the applied turn force toward target and, unless a reset is
// pending, yaws the body in proportion to the current relative speed.
func (c *Controller) Turn(target float64) {
	c.state.TurnForce = Smooth(c.state.TurnForce, target, c.forceRate())
	if c.state.ResetPending {
		return
	}
	if yaw := c.integ.yawDelta(c.state.Speed, c.state.TurnForce, c.dt); yaw != 0 {
		c.body.RotateBy(yaw)
	}
}

// Brake slows the vehicle toward zero. It does not touch the applied drive force.
func (c *Controller) Brake(intensity float64) {
	c.integ.brake(&c.state, intensity, c.dt)
}

// End finishes a tick by moving the body along its forward axis.
func (c *Controller) End() {
	if c.state.Speed == 0 || c.dt == 0 {
		return
	}
	forward := core.Forward(c.body.Orientation())
	c.body.SetPosition(c.body.Position().Add(forward.Mul(c.state.Speed * c.dt)))
}

// Step runs a complete tick for one intent.
func (c *Controller) Step(in core.Intent) {
	c.Begin()
	c.Drive(in.Drive)
	if in.Brake {
		intensity := in.BrakeIntensity
		if intensity == 0 {
			intensity = DefaultBrakeIntensity
		}
		c.Brake(intensity)
	}
	// turn after braking so the yaw uses this tick's final speed
	c.Turn(in.Turn)
	c.End()
}

// NotifyContact records a contact for the next tick when the policy says it
// resets the car. Ignored contacts never occupy the slot. Safe for concurrent use.
func (c *Controller) NotifyContact(ct collision.Contact) {
	if c.policy.Resolve(ct) != collision.ActionReset {
		c.logger.Debug("contact ignored", "category", ct.Category.String(), "tag", ct.Tag)
		return
	}
	c.contacts.Offer(ct)
}

// NormalizedSpeed is speed over the limit in its direction: [0, 1] forward,
// [-1, 0) reversing.
func (c *Controller) NormalizedSpeed() float64 {
	if c.state.Speed >= 0 {
		return c.state.Speed / c.tuning.MaxForwardSpeed
	}
	return -c.state.Speed / c.tuning.MaxReverseSpeed
}

// DriveForce is the applied drive force.
func (c *Controller) DriveForce() float64 { return c.state.DriveForce }

// TurnForce is the applied turn force.
func (c *Controller) TurnForce() float64 { return c.state.TurnForce }

// Speed is the signed scalar speed.
func (c *Controller) Speed() float64 { return c.state.Speed }

// ResetPending reports whether the reset sequence is running.
func (c *Controller) ResetPending() bool { return c.state.ResetPending }

// Snapshot returns a copy of the motion state.
func (c *Controller) Snapshot() State { return c.state }

// Tuning returns the constants the controller was built with.
func (c *Controller) Tuning() Tuning { return c.tuning }

// Tick is the number of ticks begun so far.
func (c *Controller) Tick() uint64 { return c.tick }

// DeltaTime is the sanitized frame delta of the current tick.
func (c *Controller) DeltaTime() float64 { return c.dt }

func (c *Controller) sampleDelta() float64 {
	dt := c.clock.DeltaTime()
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt < 0 {
		c.logger.Debug("ignoring frame delta", "dt", dt, "tick", c.tick)
		return 0
	}
	return dt
}

func (c *Controller) forceRate() float64 {
	if c.tuning.ScaleForceRate {
		return c.tuning.ForceChangeRate * c.dt / c.tuning.ReferenceTick
	}
	return c.tuning.ForceChangeRate
}
