// internal/storage/storage.go
package storage

import "github.com/airace/carcontrol/pkg/core"

// Backend is the interface all run recorders must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Run management (assigns Run.ID)
	StartRun(run *core.Run) error
	EndRun() error

	// Recording
	RecordTick(s *core.TickSample) error
	RecordReset(e *core.ResetEvent) error
}

// Uploadable is an optional interface for backends that produce a file
// suitable for upload to the recording archive.
type Uploadable interface {
	GetExportedFilePath() string
	GetExportMetadata() core.UploadMetadata
}
