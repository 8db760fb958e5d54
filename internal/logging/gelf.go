package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
)

// GELFWriter is the part of *gelf.Writer the handler uses.
type GELFWriter interface {
	WriteMessage(m *gelf.Message) error
	Close() error
}

// DialGraylog opens a UDP GELF writer to addr ("host:port").
func DialGraylog(addr string) (*gelf.Writer, error) {
	w, err := gelf.NewWriter(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to graylog at %s: %w", addr, err)
	}
	return w, nil
}

// GELFHandler is a slog.Handler that ships each record as a GELF message.
// Attributes become additional fields; groups are joined with dots.
type GELFHandler struct {
	w      GELFWriter
	host   string
	attrs  []slog.Attr
	groups []string
	mu     *sync.Mutex
}

// NewGELFHandler writes to w, reporting host as the message source. An empty
// host uses os.Hostname.
func NewGELFHandler(w GELFWriter, host string) *GELFHandler {
	if host == "" {
		host, _ = os.Hostname()
	}
	return &GELFHandler{w: w, host: host, mu: &sync.Mutex{}}
}

// Enabled accepts everything; level filtering happens in the manager.
func (h *GELFHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

// Handle converts and sends the record.
func (h *GELFHandler) Handle(_ context.Context, r slog.Record) error {
	extra := make(map[string]any, len(h.attrs)+r.NumAttrs())
	prefix := strings.Join(h.groups, ".")
	for _, a := range h.attrs {
		addField(extra, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		addField(extra, prefix, a)
		return true
	})

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	msg := &gelf.Message{
		Version:  "1.1",
		Host:     h.host,
		Short:    r.Message,
		TimeUnix: float64(ts.UnixNano()) / float64(time.Second),
		Level:    syslogLevel(r.Level),
		Extra:    extra,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.w.WriteMessage(msg)
}

// WithAttrs returns a handler that adds attrs to every message.
func (h *GELFHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	prefix := strings.Join(h.groups, ".")
	cp := *h
	cp.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		if prefix != "" {
			a.Key = prefix + "." + a.Key
		}
		cp.attrs = append(cp.attrs, a)
	}
	return &cp
}

// WithGroup returns a handler that prefixes later attribute keys.
func (h *GELFHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	cp := *h
	cp.groups = append(append([]string(nil), h.groups...), name)
	return &cp
}

func addField(extra map[string]any, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			addField(extra, key, ga)
		}
		return
	}
	// GELF reserves "_id"
	if key == "id" {
		key = "id_"
	}

	var v any
	switch a.Value.Kind() {
	case slog.KindInt64:
		v = a.Value.Int64()
	case slog.KindUint64:
		v = a.Value.Uint64()
	case slog.KindFloat64:
		v = a.Value.Float64()
	case slog.KindBool:
		v = a.Value.Bool()
	default:
		v = a.Value.String()
	}
	extra["_"+key] = v
}

// syslogLevel maps slog levels onto the syslog severities GELF uses.
func syslogLevel(l slog.Level) int32 {
	switch {
	case l >= slog.LevelError:
		return 3
	case l >= slog.LevelWarn:
		return 4
	case l >= slog.LevelInfo:
		return 6
	default:
		return 7
	}
}
