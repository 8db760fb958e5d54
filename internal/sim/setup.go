package sim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/airace/carcontrol/internal/config"
	"github.com/airace/carcontrol/internal/input"
	"github.com/airace/carcontrol/pkg/core"
)

// ArenaFromConfig builds the configured arena, or nil when no size is set.
func ArenaFromConfig(cfg config.SimConfig) *Arena {
	walled := cfg.ArenaWidth > 0 && cfg.ArenaDepth > 0
	if !walled && len(cfg.Obstacles) == 0 {
		return nil
	}

	a := &Arena{}
	if walled {
		a = RectArena(cfg.ArenaWidth, cfg.ArenaDepth)
	}
	for _, o := range cfg.Obstacles {
		tag := o.Tag
		if tag == "" {
			tag = "car"
		}
		a.AddObstacle(Circle{Tag: tag, Center: mgl64.Vec2{o.X, o.Z}, Radius: o.Radius})
	}
	return a
}

// SpawnFromConfig converts the configured spawn point into a pose.
func SpawnFromConfig(s config.SpawnConfig) core.Pose {
	return core.Pose{
		Position:    mgl64.Vec3{s.X, s.Y, s.Z},
		Orientation: mgl64.QuatRotate(mgl64.DegToRad(s.Yaw), up),
	}
}

// SourceFromConfig builds the configured intent source.
func SourceFromConfig(cfg config.SimConfig) (input.Source, error) {
	switch cfg.Input {
	case "", "idle":
		return input.Idle, nil
	case "script":
		s, err := input.NewScript(cfg.Script, cfg.ScriptLoop)
		if err != nil {
			return nil, fmt.Errorf("sim.script: %w", err)
		}
		return s, nil
	case "cruise":
		waypoints := make([]mgl64.Vec2, 0, len(cfg.Waypoints))
		for _, wp := range cfg.Waypoints {
			waypoints = append(waypoints, mgl64.Vec2{wp[0], wp[1]})
		}
		return input.NewCruise(cfg.CruiseTarget, waypoints), nil
	default:
		return nil, fmt.Errorf("unknown input source %q", cfg.Input)
	}
}
