package motion

// State is the controller's mutable motion state.
type State struct {
	Speed        float64 // signed, within [MaxReverseSpeed, MaxForwardSpeed]
	DriveForce   float64 // applied (smoothed) drive force in [-1, 1]
	TurnForce    float64 // applied (smoothed) turn force in [-1, 1]
	ResetPending bool
}

// Phase of the reset sequence.
type Phase uint8

const (
	PhaseActive Phase = iota
	PhaseResetPending
)

func (p Phase) String() string {
	if p == PhaseResetPending {
		return "reset_pending"
	}
	return "active"
}

// Phase derives the reset phase from the pending flag.
func (s State) Phase() Phase {
	if s.ResetPending {
		return PhaseResetPending
	}
	return PhaseActive
}
