// Package gormstorage records runs into a SQL database through GORM, with
// internal queues drained by a background writer goroutine. SQLite databases
// held in memory can be dumped to disk periodically via VACUUM INTO.
package gormstorage

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/airace/carcontrol/internal/database"
	"github.com/airace/carcontrol/internal/geo"
	"github.com/airace/carcontrol/internal/model"
	"github.com/airace/carcontrol/internal/model/convert"
	"github.com/airace/carcontrol/internal/queue"
	"github.com/airace/carcontrol/pkg/core"
)

// ErrNoActiveRun is returned when recording before StartRun or after EndRun.
var ErrNoActiveRun = errors.New("no active run")

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB     *gorm.DB
	Logger *slog.Logger
}

// Config tunes the background writers.
type Config struct {
	FlushInterval time.Duration // default 2s
	BatchSize     int           // rows per insert, 0 for everything queued
	DumpPath      string        // sqlite only
	DumpInterval  time.Duration
}

type queues struct {
	Samples *queue.Queue[model.TickSample]
	Resets  *queue.Queue[model.ResetEvent]
}

func newQueues() *queues {
	return &queues{
		Samples: queue.New[model.TickSample](),
		Resets:  queue.New[model.ResetEvent](),
	}
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps Dependencies
	cfg  Config
	log  *slog.Logger

	queues *queues

	mu         sync.Mutex
	run        *model.Run
	track      []core.Position3D
	tickCount  uint
	resetCount uint

	writeMu  sync.Mutex
	stopChan chan struct{}
	wg       sync.WaitGroup
	now      func() time.Time
}

// New creates a new GORM storage backend.
func New(deps Dependencies, cfg Config) *Backend {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 2 * time.Second
	}
	log := deps.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Backend{
		deps: deps,
		cfg:  cfg,
		log:  log.With("component", "storage.gorm"),
		now:  time.Now,
	}
}

// Init runs schema migration and starts the writer goroutines.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return errors.New("gorm backend needs a database")
	}
	b.queues = newQueues()
	b.stopChan = make(chan struct{})

	b.log.Info("Migrating schema")
	if err := b.deps.DB.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	b.wg.Add(1)
	go b.writeLoop()

	if b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0 && b.deps.DB.Name() == "sqlite" {
		b.wg.Add(1)
		go b.dumpLoop()
	}
	return nil
}

// Close stops the writers, flushing whatever is still queued.
func (b *Backend) Close() error {
	if b.stopChan == nil {
		return nil
	}
	close(b.stopChan)
	b.wg.Wait()
	b.stopChan = nil

	err := b.Flush()
	if b.cfg.DumpPath != "" && b.deps.DB.Name() == "sqlite" {
		err = errors.Join(err, database.DumpToDisk(b.deps.DB, b.cfg.DumpPath))
	}
	return err
}

// StartRun inserts the run row and assigns its ID.
func (b *Backend) StartRun(r *core.Run) error {
	row := convert.CoreToRun(*r)
	row.ID = 0
	if err := b.deps.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	r.ID = row.ID

	b.mu.Lock()
	defer b.mu.Unlock()
	b.run = &row
	b.track = b.track[:0]
	b.tickCount, b.resetCount = 0, 0

	b.log.Info("Run started", "run", row.ID, "name", row.Name, "vehicle", row.VehicleID)
	return nil
}

// EndRun flushes pending rows and completes the run row with its summary.
func (b *Backend) EndRun() error {
	b.mu.Lock()
	run := b.run
	track := b.track
	ticks, resets := b.tickCount, b.resetCount
	b.run = nil
	b.mu.Unlock()

	if run == nil {
		return ErrNoActiveRun
	}

	if err := b.Flush(); err != nil {
		return err
	}

	wkt, err := geo.TrajectoryWKT(track)
	if err != nil && !errors.Is(err, geo.ErrShortTrack) {
		return fmt.Errorf("failed to build track: %w", err)
	}

	updates := map[string]any{
		"EndTime":    sql.NullTime{Time: b.now(), Valid: true},
		"TickCount":  ticks,
		"ResetCount": resets,
		"TrackWKT":   wkt,
	}
	if err := b.deps.DB.Model(&model.Run{}).Where("id = ?", run.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to finalize run %d: %w", run.ID, err)
	}

	b.log.Info("Run ended", "run", run.ID, "ticks", ticks, "resets", resets)
	return nil
}

// RecordTick converts and queues a sample.
func (b *Backend) RecordTick(s *core.TickSample) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.run == nil {
		return ErrNoActiveRun
	}
	s.RunID = b.run.ID
	b.queues.Samples.Push(convert.CoreToTickSample(*s))
	b.track = append(b.track, s.Position)
	b.tickCount++
	return nil
}

// RecordReset converts and queues a reset transition.
func (b *Backend) RecordReset(e *core.ResetEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.run == nil {
		return ErrNoActiveRun
	}
	e.RunID = b.run.ID
	b.queues.Resets.Push(convert.CoreToResetEvent(*e))
	if e.Phase == core.ResetPhaseTriggered {
		b.resetCount++
	}
	return nil
}

// Flush writes everything queued so far.
func (b *Backend) Flush() error {
	if b.queues == nil {
		return nil
	}
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	return errors.Join(
		writeQueue(b.deps.DB, b.queues.Samples, b.cfg.BatchSize),
		writeQueue(b.deps.DB, b.queues.Resets, b.cfg.BatchSize),
	)
}

// LoadSamples returns the stored samples of a run in tick order.
func (b *Backend) LoadSamples(runID uint) ([]core.TickSample, error) {
	var rows []model.TickSample
	if err := b.deps.DB.Where("run_id = ?", runID).Order("tick").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load samples for run %d: %w", runID, err)
	}
	out := make([]core.TickSample, len(rows))
	for i, r := range rows {
		out[i] = convert.TickSampleToCore(r)
	}
	return out, nil
}

// writeQueue inserts queued rows in one transaction per batch. Rows of a
// failed batch go back to the front of the queue.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], batch int) error {
	for q.Len() > 0 {
		items := q.Drain(batch)
		err := db.Transaction(func(tx *gorm.DB) error {
			return tx.Omit(clause.Associations).Create(&items).Error
		})
		if err != nil {
			q.Requeue(items)
			var zero T
			return fmt.Errorf("failed to write %T rows: %w", zero, err)
		}
	}
	return nil
}

func (b *Backend) writeLoop() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.Flush(); err != nil {
				b.log.Error("Error writing queued rows", "error", err)
			}
		}
	}
}

func (b *Backend) dumpLoop() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			start := time.Now()
			if err := database.DumpToDisk(b.deps.DB, b.cfg.DumpPath); err != nil {
				b.log.Error("Error dumping to disk", "error", err)
			} else {
				b.log.Debug("Dumped to disk", "duration", time.Since(start))
			}
		}
	}
}
