package input

import (
	"errors"
	"fmt"

	"github.com/airace/carcontrol/pkg/core"
)

// Segment holds one intent for a number of ticks.
type Segment struct {
	Ticks          int     `json:"ticks" mapstructure:"ticks"`
	Drive          float64 `json:"drive" mapstructure:"drive"`
	Turn           float64 `json:"turn" mapstructure:"turn"`
	Brake          bool    `json:"brake" mapstructure:"brake"`
	BrakeIntensity float64 `json:"brakeIntensity" mapstructure:"brakeIntensity"`
}

func (s Segment) intent() core.Intent {
	return core.Intent{Drive: s.Drive, Turn: s.Turn, Brake: s.Brake, BrakeIntensity: s.BrakeIntensity}
}

// Script replays a fixed sequence of segments, then idles or loops.
type Script struct {
	segments []Segment
	loop     bool

	index int
	used  int
}

var ErrEmptyScript = errors.New("script has no ticks")

// NewScript validates segments. With loop set the script restarts after the
// last segment instead of idling.
func NewScript(segments []Segment, loop bool) (*Script, error) {
	total := 0
	for i, s := range segments {
		if s.Ticks < 0 {
			return nil, fmt.Errorf("segment %d: negative tick count %d", i, s.Ticks)
		}
		total += s.Ticks
	}
	if total == 0 {
		return nil, ErrEmptyScript
	}
	return &Script{segments: segments, loop: loop}, nil
}

// Next ignores the observation.
func (s *Script) Next(Observation) core.Intent {
	for {
		if s.index >= len(s.segments) {
			if !s.loop {
				return core.Intent{}
			}
			s.index, s.used = 0, 0
		}
		seg := s.segments[s.index]
		if s.used < seg.Ticks {
			s.used++
			return seg.intent()
		}
		s.index++
		s.used = 0
	}
}

// Done reports whether a non-looping script has run out.
func (s *Script) Done() bool {
	if s.loop {
		return false
	}
	for i := s.index; i < len(s.segments); i++ {
		left := s.segments[i].Ticks
		if i == s.index {
			left -= s.used
		}
		if left > 0 {
			return false
		}
	}
	return true
}
