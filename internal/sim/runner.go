package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/airace/carcontrol/internal/input"
	"github.com/airace/carcontrol/internal/otel"
	"github.com/airace/carcontrol/pkg/core"
)

// Recorder receives a run's samples. storage.Backend satisfies it.
type Recorder interface {
	StartRun(run *core.Run) error
	EndRun() error
	RecordTick(s *core.TickSample) error
	RecordReset(e *core.ResetEvent) error
}

// Finite is implemented by intent sources that run out, such as a
// non-looping script.
type Finite interface {
	Done() bool
}

// ErrNoTickLimit is returned when neither a tick count nor a finite source
// bounds the run.
var ErrNoTickLimit = errors.New("run needs a tick count or a finite input source")

// Runner drives one vehicle from an intent source and records what happens.
type Runner struct {
	Vehicle  *Vehicle
	Source   input.Source
	Recorder Recorder         // optional
	Metrics  *otel.SimMetrics // optional
	Logger   *slog.Logger

	// Ticks bounds the run; 0 runs until a Finite source is done.
	Ticks int
	// Interval paces ticks in wall time when > 0.
	Interval time.Duration

	mu       sync.Mutex
	runName  string
	progress Progress
	tick     atomic.Uint64
}

// Progress is a point-in-time view of the active run.
type Progress struct {
	Run          string  `json:"run"`
	Tick         uint64  `json:"tick"`
	Elapsed      float64 `json:"elapsed"`
	Speed        float64 `json:"speed"`
	ResetPending bool    `json:"resetPending"`
	Resets       int     `json:"resets"`
	RecordErrors int     `json:"recordErrors"`
}

// Summary describes a finished run.
type Summary struct {
	Ticks        int
	Resets       int
	Contacts     int
	Duration     float64 // simulated seconds
	MaxSpeed     float64
	RecordErrors int
}

// LogAttrs reports the active run and tick for log records. Safe for
// concurrent use.
func (r *Runner) LogAttrs() []slog.Attr {
	r.mu.Lock()
	name := r.runName
	r.mu.Unlock()
	if name == "" {
		return nil
	}
	return []slog.Attr{slog.String("run", name), slog.Uint64("tick", r.tick.Load())}
}

// Progress reports the active run. Safe for concurrent use; the zero value
// means no run is active.
func (r *Runner) Progress() Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progress
}

// Run executes the run until the tick limit, the source finishing, or ctx
// being cancelled. Cancellation is not an error: the run is closed normally.
func (r *Runner) Run(ctx context.Context, run *core.Run) (Summary, error) {
	var sum Summary
	finite, isFinite := r.Source.(Finite)
	if r.Ticks <= 0 && !isFinite {
		return sum, ErrNoTickLimit
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if r.Recorder != nil {
		if err := r.Recorder.StartRun(run); err != nil {
			return sum, fmt.Errorf("failed to start run: %w", err)
		}
	}
	r.mu.Lock()
	r.runName = run.Name
	r.progress = Progress{Run: run.Name}
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.runName = ""
		r.progress = Progress{}
		r.mu.Unlock()
	}()

	logger.Info("Run started", "run", run.Name, "runId", run.ID, "vehicle", r.Vehicle.ID, "ticks", r.Ticks)

	var pace <-chan time.Time
	if r.Interval > 0 {
		t := time.NewTicker(r.Interval)
		defer t.Stop()
		pace = t.C
	}

loop:
	for r.Ticks <= 0 || sum.Ticks < r.Ticks {
		if isFinite && finite.Done() {
			break
		}
		if pace != nil {
			select {
			case <-ctx.Done():
				break loop
			case <-pace:
			}
		} else if ctx.Err() != nil {
			break
		}

		res := r.Vehicle.Step(r.Source.Next(r.Vehicle.Observe()))
		r.tick.Store(uint64(res.Sample.Tick))
		sum.Ticks++
		sum.Contacts += len(res.Contacts)
		sum.MaxSpeed = math.Max(sum.MaxSpeed, math.Abs(res.Sample.Speed))

		if r.Metrics != nil {
			r.Metrics.Tick(ctx, r.Vehicle.ID, res.Sample.Speed)
		}
		if r.Recorder != nil {
			if err := r.Recorder.RecordTick(&res.Sample); err != nil {
				sum.RecordErrors++
				logger.Warn("Failed to record tick", "error", err)
			}
		}

		for i := range res.Resets {
			ev := &res.Resets[i]
			if ev.Phase == core.ResetPhaseTriggered {
				sum.Resets++
				if r.Metrics != nil {
					r.Metrics.Reset(ctx, r.Vehicle.ID, ev.Category)
				}
			}
			if r.Recorder != nil {
				if err := r.Recorder.RecordReset(ev); err != nil {
					sum.RecordErrors++
					logger.Warn("Failed to record reset", "phase", ev.Phase, "error", err)
				}
			}
		}

		r.mu.Lock()
		r.progress = Progress{
			Run:          run.Name,
			Tick:         uint64(res.Sample.Tick),
			Elapsed:      res.Sample.Elapsed,
			Speed:        res.Sample.Speed,
			ResetPending: res.Sample.ResetPending,
			Resets:       sum.Resets,
			RecordErrors: sum.RecordErrors,
		}
		r.mu.Unlock()
	}

	sum.Duration = r.Vehicle.Elapsed()
	logger.Info("Run finished",
		"run", run.Name,
		"ticks", sum.Ticks,
		"resets", sum.Resets,
		"duration", sum.Duration,
		"maxSpeed", sum.MaxSpeed,
	)

	if r.Recorder != nil {
		if err := r.Recorder.EndRun(); err != nil {
			return sum, fmt.Errorf("failed to end run: %w", err)
		}
	}
	return sum, nil
}
