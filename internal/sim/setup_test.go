package sim

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airace/carcontrol/internal/config"
	"github.com/airace/carcontrol/internal/input"
	"github.com/airace/carcontrol/pkg/core"
)

func TestArenaFromConfig(t *testing.T) {
	assert.Nil(t, ArenaFromConfig(config.SimConfig{}))

	a := ArenaFromConfig(config.SimConfig{
		ArenaWidth: 40,
		ArenaDepth: 60,
		Obstacles: []config.ObstacleConfig{
			{X: 5, Z: 10, Radius: 1.5},
			{X: -5, Z: 0, Radius: 1, Tag: "cone"},
		},
	})
	require.NotNil(t, a)
	assert.Len(t, a.Walls, 4)
	require.Len(t, a.Obstacles, 2)
	assert.Equal(t, "car", a.Obstacles[0].Tag)
	assert.Equal(t, mgl64.Vec2{5, 10}, a.Obstacles[0].Center)
	assert.Equal(t, "cone", a.Obstacles[1].Tag)

	open := ArenaFromConfig(config.SimConfig{Obstacles: []config.ObstacleConfig{{Radius: 1}}})
	require.NotNil(t, open)
	assert.Empty(t, open.Walls)
}

func TestSpawnFromConfig(t *testing.T) {
	p := SpawnFromConfig(config.SpawnConfig{X: 1, Y: 0.5, Z: -2, Yaw: 90})
	assert.Equal(t, mgl64.Vec3{1, 0.5, -2}, p.Position)
	assert.InDelta(t, 90, core.Yaw(p.Orientation), 1e-9)
}

func TestSourceFromConfig(t *testing.T) {
	src, err := SourceFromConfig(config.SimConfig{})
	require.NoError(t, err)
	assert.Equal(t, core.Intent{}, src.Next(input.Observation{}))

	src, err = SourceFromConfig(config.SimConfig{Input: "script", Script: []input.Segment{{Ticks: 2, Drive: 0.5}}})
	require.NoError(t, err)
	assert.IsType(t, &input.Script{}, src)

	src, err = SourceFromConfig(config.SimConfig{Input: "cruise", CruiseTarget: 0.5, Waypoints: [][]float64{{0, 10}, {10, 10}}})
	require.NoError(t, err)
	cruise, ok := src.(*input.Cruise)
	require.True(t, ok)
	assert.Len(t, cruise.Waypoints, 2)

	_, err = SourceFromConfig(config.SimConfig{Input: "script"})
	assert.ErrorIs(t, err, input.ErrEmptyScript)

	_, err = SourceFromConfig(config.SimConfig{Input: "joystick"})
	assert.EqualError(t, err, `unknown input source "joystick"`)
}
