// internal/storage/memory/export_test.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airace/carcontrol/internal/config"
	v1 "github.com/airace/carcontrol/internal/storage/memory/export/v1"
	"github.com/airace/carcontrol/pkg/core"
)

func recordRun(t *testing.T, b *Backend, name string) *core.Run {
	t.Helper()
	run := &core.Run{
		Name:      name,
		VehicleID: "car-1",
		Tag:       "eval",
		StartTime: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		TickRate:  60,
		Tuning:    map[string]float64{"maxForwardSpeed": 30},
	}
	require.NoError(t, b.StartRun(run))
	for i := uint(1); i <= 3; i++ {
		require.NoError(t, b.RecordTick(&core.TickSample{
			Tick:     i,
			Elapsed:  float64(i) / 60,
			Speed:    float64(i),
			Position: core.Position3D{Y: 0.5, Z: float64(i)},
		}))
	}
	require.NoError(t, b.RecordReset(&core.ResetEvent{Tick: 2, Phase: core.ResetPhaseTriggered, Category: "wall"}))
	require.NoError(t, b.EndRun())
	return run
}

func TestExport_Uncompressed(t *testing.T) {
	dir := t.TempDir()
	b := New(config.MemoryConfig{OutputDir: dir, CompressOutput: false})
	recordRun(t, b, "Lap 1: warmup")

	path := b.GetExportedFilePath()
	assert.Equal(t, filepath.Join(dir, "Lap_1__warmup_20240115_103000.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var export v1.Export
	require.NoError(t, json.Unmarshal(data, &export))
	assert.Equal(t, 1, export.FormatVersion)
	assert.Equal(t, "Lap 1: warmup", export.Run.Name)
	assert.Equal(t, 30.0, export.Run.Tuning["maxForwardSpeed"])
	assert.Len(t, export.Samples, 3)
	assert.Equal(t, 3, export.Summary.Ticks)
	assert.Equal(t, 1, export.Summary.Resets)
	assert.Equal(t, "LINESTRING(0 1,0 2,0 3)", export.Track)
}

func TestExport_Gzip(t *testing.T) {
	dir := t.TempDir()
	b := New(config.MemoryConfig{OutputDir: dir, CompressOutput: true})
	recordRun(t, b, "gz")

	path := b.GetExportedFilePath()
	assert.Equal(t, ".gz", filepath.Ext(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer gz.Close()

	var export v1.Export
	require.NoError(t, json.NewDecoder(gz).Decode(&export))
	assert.Equal(t, "gz", export.Run.Name)
	assert.Len(t, export.Resets, 1)
}

func TestExport_CreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	b := New(config.MemoryConfig{OutputDir: dir})
	recordRun(t, b, "nested")

	_, err := os.Stat(b.GetExportedFilePath())
	assert.NoError(t, err)
}

func TestGetExportMetadata(t *testing.T) {
	b := New(config.MemoryConfig{OutputDir: t.TempDir()})
	assert.Empty(t, b.GetExportedFilePath())

	recordRun(t, b, "meta")
	meta := b.GetExportMetadata()
	assert.Equal(t, "meta", meta.RunName)
	assert.Equal(t, "car-1", meta.VehicleID)
	assert.Equal(t, "eval", meta.Tag)
	assert.InDelta(t, 0.05, meta.Duration, 1e-12)
}
