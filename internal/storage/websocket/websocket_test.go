package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airace/carcontrol/pkg/core"
	"github.com/airace/carcontrol/pkg/streaming"
)

type serverOptions struct {
	runID     uint // returned in the start_run ack when non-zero
	skipAcks  bool
	dropFirst bool // close the first connection after its first tick
}

// testServer creates an httptest server that upgrades to WebSocket,
// records received messages, and acks start_run/end_run.
func testServer(t *testing.T, opts serverOptions) (*httptest.Server, *messageLog) {
	t.Helper()
	ml := &messageLog{}
	var conns atomic.Int32

	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ml.setSecret(r.URL.Query().Get("secret"))
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer c.Close()
		n := conns.Add(1)

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}

			var env streaming.Envelope
			if err := json.Unmarshal(msg, &env); err != nil {
				continue
			}
			ml.add(env)

			if opts.dropFirst && n == 1 && env.Type == streaming.TypeTick {
				return
			}

			if opts.skipAcks {
				continue
			}
			if env.Type == streaming.TypeStartRun || env.Type == streaming.TypeEndRun {
				ack := streaming.AckMessage{Type: streaming.TypeAck, For: env.Type}
				if env.Type == streaming.TypeStartRun {
					ack.RunID = opts.runID
				}
				data, _ := json.Marshal(ack)
				if err := c.WriteMessage(ws.TextMessage, data); err != nil {
					return
				}
			}
		}
	}))

	return srv, ml
}

type messageLog struct {
	mu       sync.Mutex
	messages []streaming.Envelope
	secret   string
}

func (m *messageLog) add(env streaming.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, env)
}

func (m *messageLog) setSecret(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secret = s
}

func (m *messageLog) all() []streaming.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]streaming.Envelope, len(m.messages))
	copy(cp, m.messages)
	return cp
}

func (m *messageLog) count(msgType string) int {
	n := 0
	for _, env := range m.all() {
		if env.Type == msgType {
			n++
		}
	}
	return n
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestStartAndEndRun(t *testing.T) {
	srv, ml := testServer(t, serverOptions{})
	defer srv.Close()

	b := New(Config{URL: wsURL(srv), Secret: "test"})
	require.NoError(t, b.Init())
	defer b.Close()

	run := &core.Run{Name: "lap", VehicleID: "car-1"}
	require.NoError(t, b.StartRun(run))
	assert.Equal(t, uint(1), run.ID)
	require.NoError(t, b.EndRun())

	msgs := ml.all()
	require.Len(t, msgs, 2)
	assert.Equal(t, streaming.TypeStartRun, msgs[0].Type)
	assert.Equal(t, streaming.TypeEndRun, msgs[1].Type)

	var start streaming.StartRunPayload
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &start))
	assert.Equal(t, "lap", start.Run.Name)

	ml.mu.Lock()
	assert.Equal(t, "test", ml.secret)
	ml.mu.Unlock()
}

func TestStartRun_UsesServerRunID(t *testing.T) {
	srv, _ := testServer(t, serverOptions{runID: 77})
	defer srv.Close()

	b := New(Config{URL: wsURL(srv)})
	require.NoError(t, b.Init())
	defer b.Close()

	run := &core.Run{Name: "lap"}
	require.NoError(t, b.StartRun(run))
	assert.Equal(t, uint(77), run.ID)

	s := &core.TickSample{Tick: 1}
	require.NoError(t, b.RecordTick(s))
	assert.Equal(t, uint(77), s.RunID)
}

func TestStreamsSamplesAndResets(t *testing.T) {
	srv, ml := testServer(t, serverOptions{})
	defer srv.Close()

	b := New(Config{URL: wsURL(srv)})
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.StartRun(&core.Run{Name: "stream"}))
	for i := uint(1); i <= 5; i++ {
		require.NoError(t, b.RecordTick(&core.TickSample{Tick: i, Speed: float64(i)}))
	}
	require.NoError(t, b.RecordReset(&core.ResetEvent{Tick: 3, Phase: core.ResetPhaseTriggered, Category: "car"}))
	require.NoError(t, b.EndRun())

	assert.Equal(t, 5, ml.count(streaming.TypeTick))
	assert.Equal(t, 1, ml.count(streaming.TypeReset))

	msgs := ml.all()
	var end streaming.EndRunPayload
	require.NoError(t, json.Unmarshal(msgs[len(msgs)-1].Payload, &end))
	assert.Equal(t, 5, end.Ticks)
	assert.Equal(t, 1, end.Resets)

	var sample core.TickSample
	require.NoError(t, json.Unmarshal(msgs[1].Payload, &sample))
	assert.Equal(t, uint(1), sample.Tick)
	assert.Equal(t, uint(1), sample.RunID)
}

func TestRecordWithoutRun(t *testing.T) {
	b := New(Config{URL: "ws://127.0.0.1:1"})
	assert.ErrorIs(t, b.RecordTick(&core.TickSample{}), ErrNoActiveRun)
	assert.ErrorIs(t, b.RecordReset(&core.ResetEvent{}), ErrNoActiveRun)
	assert.ErrorIs(t, b.EndRun(), ErrNoActiveRun)
}

func TestInit_DialFailure(t *testing.T) {
	b := New(Config{URL: "ws://127.0.0.1:1"})
	assert.ErrorContains(t, b.Init(), "websocket dial failed")
}

func TestStartRun_AckTimeout(t *testing.T) {
	srv, _ := testServer(t, serverOptions{skipAcks: true})
	defer srv.Close()

	b := New(Config{URL: wsURL(srv), AckTimeout: 50 * time.Millisecond})
	require.NoError(t, b.Init())
	defer b.Close()

	err := b.StartRun(&core.Run{Name: "slow"})
	assert.ErrorContains(t, err, `timeout waiting for ack of "start_run"`)
}

func TestReconnect_ReplaysStartRun(t *testing.T) {
	srv, ml := testServer(t, serverOptions{dropFirst: true})
	defer srv.Close()

	b := newBackend(Config{URL: wsURL(srv)}, retryPolicy{maxAttempts: 5, initial: 10 * time.Millisecond, max: 50 * time.Millisecond})
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.StartRun(&core.Run{Name: "flaky"}))
	require.NoError(t, b.RecordTick(&core.TickSample{Tick: 1}))

	assert.Eventually(t, func() bool {
		return b.conn.reconnects.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		return ml.count(streaming.TypeStartRun) == 2
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, b.RecordTick(&core.TickSample{Tick: 2}))
	require.NoError(t, b.EndRun())
	assert.GreaterOrEqual(t, ml.count(streaming.TypeTick), 2)
}

func TestClose_Idempotent(t *testing.T) {
	srv, _ := testServer(t, serverOptions{})
	defer srv.Close()

	b := New(Config{URL: wsURL(srv)})
	require.NoError(t, b.Init())
	require.NoError(t, b.Close())
	assert.NoError(t, b.Close())
}
