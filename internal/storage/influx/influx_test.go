package influxstorage

import (
	"bufio"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airace/carcontrol/internal/config"
	"github.com/airace/carcontrol/internal/influx"
	"github.com/airace/carcontrol/pkg/core"
)

type fakeInflux struct {
	mu     sync.Mutex
	body   strings.Builder
	bucket string
}

func (f *fakeInflux) handler(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.HasSuffix(r.URL.Path, "/ping"):
		w.WriteHeader(http.StatusNoContent)
	case strings.HasSuffix(r.URL.Path, "/write"):
		data, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.body.Write(data)
		f.bucket = r.URL.Query().Get("bucket")
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeInflux) written() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.body.String()
}

var start = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func record(t *testing.T, b *Backend) *core.Run {
	t.Helper()
	run := &core.Run{Name: "lap", VehicleID: "car-1", StartTime: start, TickRate: 60}
	require.NoError(t, b.StartRun(run))
	require.NoError(t, b.RecordTick(&core.TickSample{Tick: 1, Time: start.Add(time.Second), Speed: 12.5}))
	require.NoError(t, b.RecordReset(&core.ResetEvent{Tick: 1, Time: start.Add(time.Second), Phase: core.ResetPhaseTriggered, Category: "wall"}))
	require.NoError(t, b.RecordTick(&core.TickSample{Tick: 2, Time: start.Add(2 * time.Second), Speed: 11}))
	require.NoError(t, b.EndRun())
	return run
}

func TestBackend_WritesToServer(t *testing.T) {
	fake := &fakeInflux{}
	ts := httptest.NewServer(http.HandlerFunc(fake.handler))
	defer ts.Close()

	m := influx.NewManager(config.InfluxConfig{URL: ts.URL, Token: "t", Org: "airace", Bucket: "runs"}, zerolog.Nop())
	b := New(m)
	require.NoError(t, b.Init())
	assert.True(t, m.IsValid)

	run := record(t, b)
	assert.Equal(t, uint(1), run.ID)
	require.NoError(t, b.Close())

	assert.Eventually(t, func() bool {
		return strings.Contains(fake.written(), MeasurementRun)
	}, 5*time.Second, 10*time.Millisecond)

	body := fake.written()
	assert.Equal(t, 2, strings.Count(body, MeasurementTick+","))
	assert.Contains(t, body, "category=wall")
	assert.Contains(t, body, "resets=1i")
	assert.Contains(t, body, "duration=2")
	assert.Equal(t, "runs", fake.bucket)
}

func TestBackend_FallsBackToBackupFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup", "influx.lp.gz")
	m := influx.NewManager(config.InfluxConfig{URL: "http://127.0.0.1:1", Org: "airace", Bucket: "runs", BackupPath: path}, zerolog.Nop())
	b := New(m)
	require.NoError(t, b.Init())
	assert.False(t, m.IsValid)

	record(t, b)
	require.NoError(t, b.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)

	var lines []string
	sc := bufio.NewScanner(gz)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.NoError(t, sc.Err())
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], MeasurementTick+","))
	assert.True(t, strings.HasPrefix(lines[1], MeasurementReset+","))
	assert.True(t, strings.HasPrefix(lines[3], MeasurementRun+","))
}

func TestBackend_UnreachableWithoutBackup(t *testing.T) {
	m := influx.NewManager(config.InfluxConfig{URL: "http://127.0.0.1:1"}, zerolog.Nop())
	b := New(m)
	assert.Error(t, b.Init())
}

func TestBackend_RecordWithoutRun(t *testing.T) {
	b := New(influx.NewManager(config.InfluxConfig{}, zerolog.Nop()))
	assert.ErrorIs(t, b.RecordTick(&core.TickSample{}), ErrNoActiveRun)
	assert.ErrorIs(t, b.RecordReset(&core.ResetEvent{}), ErrNoActiveRun)
	assert.ErrorIs(t, b.EndRun(), ErrNoActiveRun)
}

func TestTickPoint(t *testing.T) {
	run := &core.Run{ID: 3, Name: "lap one", VehicleID: "car-1", Tag: "eval"}
	p := TickPoint(run, &core.TickSample{
		Tick:         3,
		Time:         start,
		Speed:        12.5,
		Position:     core.Position3D{X: 1, Y: 0.5, Z: -2},
		ResetPending: true,
	})

	line := influxdb2_write.PointToLineProtocol(p, time.Nanosecond)
	assert.True(t, strings.HasPrefix(line, "vehicle_tick,"), line)
	assert.Contains(t, line, `run=lap\ one`)
	assert.Contains(t, line, "run_id=3")
	assert.Contains(t, line, "tag=eval")
	assert.Contains(t, line, "speed=12.5")
	assert.Contains(t, line, "resetPending=true")
	assert.Contains(t, line, "tick=3u")
	assert.Contains(t, line, "z=-2")
}

func TestResetPoint_CompletedHasNoCategory(t *testing.T) {
	run := &core.Run{ID: 1, Name: "lap", VehicleID: "car-1"}
	p := ResetPoint(run, &core.ResetEvent{Tick: 9, Time: start, Phase: core.ResetPhaseCompleted})

	line := influxdb2_write.PointToLineProtocol(p, time.Nanosecond)
	assert.Contains(t, line, "phase=completed")
	assert.NotContains(t, line, "category=")
}
