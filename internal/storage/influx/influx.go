// Package influxstorage streams run telemetry to InfluxDB as time series.
// Run headers are not stored; every point carries run and vehicle tags.
package influxstorage

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/airace/carcontrol/internal/influx"
	"github.com/airace/carcontrol/pkg/core"
)

// Measurement names written by the backend.
const (
	MeasurementTick  = "vehicle_tick"
	MeasurementReset = "reset_event"
	MeasurementRun   = "run_summary"
)

// ErrNoActiveRun is returned when recording before StartRun or after EndRun.
var ErrNoActiveRun = errors.New("no active run")

// Backend implements storage.Backend on top of an influx.Manager.
type Backend struct {
	manager *influx.Manager

	mu        sync.Mutex
	run       *core.Run
	nextID    uint
	ticks     int
	resets    int
	lastTime  time.Time
	connectTO time.Duration
}

// New wraps a manager. Init connects it.
func New(manager *influx.Manager) *Backend {
	return &Backend{manager: manager, connectTO: 10 * time.Second}
}

// Init connects to the server or opens the backup file.
func (b *Backend) Init() error {
	ctx, cancel := context.WithTimeout(context.Background(), b.connectTO)
	defer cancel()
	return b.manager.Connect(ctx)
}

// Close flushes outstanding points.
func (b *Backend) Close() error {
	return b.manager.Close()
}

// StartRun assigns a process-local run ID used as the run tag.
func (b *Backend) StartRun(run *core.Run) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	run.ID = b.nextID
	b.run = run
	b.ticks, b.resets = 0, 0
	b.lastTime = run.StartTime
	return nil
}

// EndRun writes a summary point and flushes.
func (b *Backend) EndRun() error {
	b.mu.Lock()
	run := b.run
	ticks, resets, last := b.ticks, b.resets, b.lastTime
	b.run = nil
	b.mu.Unlock()

	if run == nil {
		return ErrNoActiveRun
	}

	p := influxdb2_write.NewPoint(
		MeasurementRun,
		runTags(run),
		map[string]any{
			"ticks":    ticks,
			"resets":   resets,
			"tickRate": run.TickRate,
			"duration": last.Sub(run.StartTime).Seconds(),
		},
		last,
	)
	if err := b.manager.WritePoint(p); err != nil {
		return err
	}
	return b.manager.Flush()
}

// RecordTick writes one vehicle_tick point.
func (b *Backend) RecordTick(s *core.TickSample) error {
	b.mu.Lock()
	run := b.run
	if run == nil {
		b.mu.Unlock()
		return ErrNoActiveRun
	}
	s.RunID = run.ID
	b.ticks++
	if s.Time.After(b.lastTime) {
		b.lastTime = s.Time
	}
	b.mu.Unlock()

	return b.manager.WritePoint(TickPoint(run, s))
}

// RecordReset writes one reset_event point.
func (b *Backend) RecordReset(e *core.ResetEvent) error {
	b.mu.Lock()
	run := b.run
	if run == nil {
		b.mu.Unlock()
		return ErrNoActiveRun
	}
	e.RunID = run.ID
	if e.Phase == core.ResetPhaseTriggered {
		b.resets++
	}
	b.mu.Unlock()

	return b.manager.WritePoint(ResetPoint(run, e))
}

func runTags(run *core.Run) map[string]string {
	tags := map[string]string{
		"run":     run.Name,
		"run_id":  strconv.FormatUint(uint64(run.ID), 10),
		"vehicle": run.VehicleID,
	}
	if run.Tag != "" {
		tags["tag"] = run.Tag
	}
	return tags
}

// TickPoint converts a sample to a point.
func TickPoint(run *core.Run, s *core.TickSample) *influxdb2_write.Point {
	return influxdb2_write.NewPoint(
		MeasurementTick,
		runTags(run),
		map[string]any{
			"tick":            s.Tick,
			"elapsed":         s.Elapsed,
			"speed":           s.Speed,
			"normalizedSpeed": s.NormalizedSpeed,
			"driveForce":      s.DriveForce,
			"turnForce":       s.TurnForce,
			"yaw":             s.Yaw,
			"x":               s.Position.X,
			"y":               s.Position.Y,
			"z":               s.Position.Z,
			"resetPending":    s.ResetPending,
			"intentDrive":     s.Intent.Drive,
			"intentTurn":      s.Intent.Turn,
			"intentBrake":     s.Intent.Brake,
		},
		s.Time,
	)
}

// ResetPoint converts a reset transition to a point. The phase and contact
// category are tags so resets can be grouped by cause.
func ResetPoint(run *core.Run, e *core.ResetEvent) *influxdb2_write.Point {
	tags := runTags(run)
	tags["phase"] = e.Phase
	if e.Category != "" {
		tags["category"] = e.Category
	}
	return influxdb2_write.NewPoint(
		MeasurementReset,
		tags,
		map[string]any{
			"tick":  e.Tick,
			"speed": e.Speed,
			"x":     e.Position.X,
			"y":     e.Position.Y,
			"z":     e.Position.Z,
		},
		e.Time,
	)
}
