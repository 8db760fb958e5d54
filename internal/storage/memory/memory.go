// internal/storage/memory/memory.go
package memory

import (
	"errors"
	"sync"

	"github.com/airace/carcontrol/internal/config"
	"github.com/airace/carcontrol/pkg/core"
)

// ErrNoActiveRun is returned when recording before StartRun or after EndRun.
var ErrNoActiveRun = errors.New("no active run")

// Backend keeps the current run in memory and exports it to JSON when it ends
type Backend struct {
	cfg config.MemoryConfig

	run     *core.Run
	samples []core.TickSample
	resets  []core.ResetEvent

	idCounter      uint
	lastExportPath string
	lastExportMeta core.UploadMetadata
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartRun begins recording a new run and assigns its ID
func (b *Backend) StartRun(run *core.Run) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.idCounter++
	run.ID = b.idCounter

	b.run = run
	b.samples = make([]core.TickSample, 0)
	b.resets = make([]core.ResetEvent, 0)
	return nil
}

// EndRun exports the run and stops recording
func (b *Backend) EndRun() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.run == nil {
		return ErrNoActiveRun
	}
	err := b.exportJSON()
	b.run = nil
	return err
}

// RecordTick appends a sample to the current run
func (b *Backend) RecordTick(s *core.TickSample) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.run == nil {
		return ErrNoActiveRun
	}
	s.RunID = b.run.ID
	b.samples = append(b.samples, *s)
	return nil
}

// RecordReset appends a reset transition to the current run
func (b *Backend) RecordReset(e *core.ResetEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.run == nil {
		return ErrNoActiveRun
	}
	e.RunID = b.run.ID
	b.resets = append(b.resets, *e)
	return nil
}

// Samples returns a copy of what has been recorded for the current or last run
func (b *Backend) Samples() []core.TickSample {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.TickSample(nil), b.samples...)
}

// Resets returns a copy of the reset transitions of the current or last run
func (b *Backend) Resets() []core.ResetEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]core.ResetEvent(nil), b.resets...)
}

// GetExportedFilePath returns the path of the last exported file
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// GetExportMetadata describes the last exported run
func (b *Backend) GetExportMetadata() core.UploadMetadata {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportMeta
}
