// Package websocket streams runs live to a remote recorder.
package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/airace/carcontrol/pkg/core"
	"github.com/airace/carcontrol/pkg/streaming"
)

// ErrNoActiveRun is returned when recording before StartRun or after EndRun.
var ErrNoActiveRun = errors.New("no active run")

// Config holds WebSocket backend configuration.
type Config struct {
	URL        string
	Secret     string
	AckTimeout time.Duration // default 10s
	Logger     *slog.Logger
}

// Backend streams run data over WebSocket.
// It implements storage.Backend but not storage.Uploadable.
type Backend struct {
	conn *connection
	cfg  Config

	mu     sync.Mutex
	runID  uint
	active bool
	ticks  int
	resets int
}

// New creates a new WebSocket storage backend.
func New(cfg Config) *Backend {
	return newBackend(cfg, defaultRetry)
}

func newBackend(cfg Config, retry retryPolicy) *Backend {
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		conn: newConnection(logger.With("component", "storage.websocket"), retry),
		cfg:  cfg,
	}
}

// Init connects to the WebSocket server.
func (b *Backend) Init() error {
	return b.conn.dial(b.cfg.URL, b.cfg.Secret)
}

// Close disconnects from the WebSocket server.
func (b *Backend) Close() error {
	return b.conn.close()
}

// Dropped is the number of frames discarded because the send buffer was full.
func (b *Backend) Dropped() uint64 {
	return b.conn.dropped.Load()
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	env := streaming.Envelope{Type: msgType, Payload: raw}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// sendEnvelope marshals the payload into an Envelope and pushes it
// to the write loop (fire-and-forget).
func (b *Backend) sendEnvelope(msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	b.conn.send(data)
	return nil
}

// StartRun announces the run and waits for the server ack. A run ID in the
// ack replaces the local one.
func (b *Backend) StartRun(run *core.Run) error {
	b.mu.Lock()
	b.runID++
	run.ID = b.runID
	b.mu.Unlock()

	data, err := marshalEnvelope(streaming.TypeStartRun, streaming.StartRunPayload{Run: run})
	if err != nil {
		return err
	}

	// Cache for reconnect replay.
	b.conn.mu.Lock()
	b.conn.announce = data
	b.conn.mu.Unlock()

	ack, err := b.conn.sendAndWait(data, streaming.TypeStartRun, b.cfg.AckTimeout)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if ack.RunID != 0 {
		b.runID = ack.RunID
		run.ID = ack.RunID
	}
	b.active = true
	b.ticks, b.resets = 0, 0
	return nil
}

// EndRun sends end_run and waits for the server ack.
func (b *Backend) EndRun() error {
	b.mu.Lock()
	if !b.active {
		b.mu.Unlock()
		return ErrNoActiveRun
	}
	payload := streaming.EndRunPayload{RunID: b.runID, Ticks: b.ticks, Resets: b.resets}
	b.active = false
	b.mu.Unlock()

	data, err := marshalEnvelope(streaming.TypeEndRun, payload)
	if err != nil {
		return err
	}
	_, err = b.conn.sendAndWait(data, streaming.TypeEndRun, b.cfg.AckTimeout)

	// Clear cached state regardless of error.
	b.conn.mu.Lock()
	b.conn.announce = nil
	b.conn.mu.Unlock()

	return err
}

// RecordTick streams one sample.
func (b *Backend) RecordTick(s *core.TickSample) error {
	b.mu.Lock()
	if !b.active {
		b.mu.Unlock()
		return ErrNoActiveRun
	}
	s.RunID = b.runID
	b.ticks++
	b.mu.Unlock()
	return b.sendEnvelope(streaming.TypeTick, s)
}

// RecordReset streams one reset transition.
func (b *Backend) RecordReset(e *core.ResetEvent) error {
	b.mu.Lock()
	if !b.active {
		b.mu.Unlock()
		return ErrNoActiveRun
	}
	e.RunID = b.runID
	if e.Phase == core.ResetPhaseTriggered {
		b.resets++
	}
	b.mu.Unlock()
	return b.sendEnvelope(streaming.TypeReset, e)
}
