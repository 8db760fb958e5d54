package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/airace/carcontrol/internal/command"
	"github.com/airace/carcontrol/internal/config"
	"github.com/airace/carcontrol/internal/dispatcher"
	"github.com/airace/carcontrol/internal/geo"
	"github.com/airace/carcontrol/internal/logging"
	"github.com/airace/carcontrol/internal/monitor"
	"github.com/airace/carcontrol/internal/motion"
	intOtel "github.com/airace/carcontrol/internal/otel"
	"github.com/airace/carcontrol/internal/sim"
	"github.com/airace/carcontrol/internal/storage"
	"github.com/airace/carcontrol/pkg/core"
)

// newVehicle builds the configured vehicle and the run header describing it.
func (a *app) newVehicle(simCfg config.SimConfig, clock motion.Clock) (*sim.Vehicle, *core.Run, error) {
	tuning := config.GetTuning()
	v, err := sim.NewVehicle(sim.VehicleConfig{
		ID:     simCfg.VehicleID,
		Tuning: tuning,
		Spawn:  sim.SpawnFromConfig(simCfg.Spawn),
		Radius: simCfg.BodyRadius,
		Clock:  clock,
		Arena:  sim.ArenaFromConfig(simCfg),
	}, motion.WithLogger(a.logger.With("vehicle", simCfg.VehicleID)))
	if err != nil {
		return nil, nil, err
	}

	run := &core.Run{
		Name:      simCfg.RunName,
		VehicleID: simCfg.VehicleID,
		Tag:       simCfg.Tag,
		StartTime: time.Now(),
		Tuning:    tuning.Map(),
	}
	if !simCfg.Realtime {
		run.TickRate = simCfg.TickRate
	}
	if simCfg.Origin != "" {
		origin, err := geo.ParseOrigin(simCfg.Origin)
		if err != nil {
			return nil, nil, err
		}
		run.Origin = &origin
	}
	return v, run, nil
}

func clockFor(simCfg config.SimConfig) motion.Clock {
	if simCfg.Realtime {
		return sim.NewWallClock()
	}
	return sim.FixedRate(simCfg.TickRate)
}

// simulate drives the vehicle from the configured input source.
func (a *app) simulate(ctx context.Context, backend storage.Backend) error {
	simCfg, err := config.GetSimConfig()
	if err != nil {
		return err
	}
	v, run, err := a.newVehicle(simCfg, clockFor(simCfg))
	if err != nil {
		return err
	}
	src, err := sim.SourceFromConfig(simCfg)
	if err != nil {
		return err
	}
	metrics, err := intOtel.NewSimMetrics(a.otel.Meter(AppName))
	if err != nil {
		return err
	}

	a.runner.Vehicle = v
	a.runner.Source = src
	a.runner.Metrics = metrics
	a.runner.Logger = a.logger
	a.runner.Ticks = simCfg.Ticks
	if backend != nil {
		a.runner.Recorder = backend
	}
	if simCfg.Realtime && simCfg.TickRate > 0 {
		a.runner.Interval = time.Duration(float64(time.Second) / simCfg.TickRate)
	}

	mcfg := config.GetMonitorConfig()
	if mcfg.StatusFile != "" {
		mon := monitor.NewService(monitor.Dependencies{
			Logger:     a.logger,
			Progress:   a.runner.Progress,
			StatusPath: mcfg.StatusFile,
			Interval:   mcfg.Interval,
		})
		mon.Start()
		defer mon.Stop()
	}

	sum, err := a.runner.Run(ctx, run)
	if err != nil {
		return err
	}
	if sum.RecordErrors > 0 {
		a.logger.Warn("Some samples were not recorded", "failed", sum.RecordErrors)
	}
	return nil
}

// reply is one line written back to the driver.
type reply struct {
	OK     bool   `json:"ok"`
	Cmd    string `json:"cmd,omitempty"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// serve reads one command per line from in and answers with one JSON line
// per command on out, until in is exhausted or ctx is cancelled.
func (a *app) serve(ctx context.Context, backend storage.Backend, in io.Reader, out io.Writer) error {
	simCfg, err := config.GetSimConfig()
	if err != nil {
		return err
	}
	// the driver decides when time passes, so the step is always fixed
	simCfg.Realtime = false
	v, run, err := a.newVehicle(simCfg, clockFor(simCfg))
	if err != nil {
		return err
	}

	d, err := dispatcher.New(logging.NewDispatcherLogger(a.zlog.With().Str("component", "dispatcher").Logger()), a.otel.Meter(AppName))
	if err != nil {
		return err
	}
	defer d.Close()

	var rec sim.Recorder
	if backend != nil {
		if err := backend.StartRun(run); err != nil {
			return fmt.Errorf("failed to start run: %w", err)
		}
		rec = backend
	}
	command.NewService(v, rec, a.logger).Register(d)
	a.logger.Info("Serving commands", "commands", d.Commands())

	lines := scanLines(ctx, in)
	enc := json.NewEncoder(out)
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case line, ok := <-lines:
			if !ok {
				break loop
			}
			e, err := dispatcher.ParseEvent(line, time.Now())
			if err != nil {
				continue
			}
			r := reply{Cmd: e.Command}
			if res, err := d.Dispatch(e); err != nil {
				r.Error = err.Error()
			} else {
				r.OK, r.Result = true, res
			}
			if err := enc.Encode(r); err != nil {
				return fmt.Errorf("failed to write reply: %w", err)
			}
		}
	}

	if backend != nil {
		if err := backend.EndRun(); err != nil {
			return fmt.Errorf("failed to end run: %w", err)
		}
	}
	return nil
}

// scanLines streams the lines of in until it is exhausted or ctx is done.
// The channel is closed when the reader stops.
func scanLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}
