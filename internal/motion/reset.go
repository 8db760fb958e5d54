package motion

import (
	"github.com/go-gl/mathgl/mgl64"
)

// consumeContact takes the pending contact, if any, and arms the reset. The
// slot only ever holds contacts the policy resolved to a reset. Contacts during
// a pending reset change nothing.
func (c *Controller) consumeContact() {
	ct, ok := c.contacts.Take()
	if !ok || c.state.ResetPending {
		return
	}

	c.state.ResetPending = true
	c.logger.Info("reset triggered",
		"category", ct.Category.String(),
		"tag", ct.Tag,
		"speed", c.state.Speed,
		"tick", c.tick,
	)
	c.emit(Transition{From: PhaseActive, To: PhaseResetPending, Tick: c.tick, Contact: ct, Speed: c.state.Speed})
}

// advanceReset force-brakes and restores the spawn pose once the car is stopped.
func (c *Controller) advanceReset() {
	c.integ.brake(&c.state, c.tuning.ResetBrakeIntensity, c.dt)
	if c.state.Speed != 0 {
		return
	}

	c.body.SetPosition(c.spawn.Position)
	c.body.SetOrientation(c.spawn.Orientation)
	c.body.SetVelocity(mgl64.Vec3{})
	c.state.ResetPending = false

	c.logger.Info("reset complete", "tick", c.tick)
	c.emit(Transition{From: PhaseResetPending, To: PhaseActive, Tick: c.tick})
}

func (c *Controller) emit(t Transition) {
	if c.onTransition != nil {
		c.onTransition(t)
	}
}
