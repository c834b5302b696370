// Package logging provides the slog setup used across BlockyTK: an in-memory
// ring of recent entries for the overlay's log pane, optionally teed to a
// JSON log file.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"
)

// Entry is a single captured log record.
type Entry struct {
	Time    time.Time         `json:"time"`
	Level   slog.Level        `json:"level"`
	Message string            `json:"message"`
	Attrs   map[string]string `json:"attrs,omitempty"`
}

// String renders the entry on a single line with attrs in key order.
func (e Entry) String() string {
	var b strings.Builder
	b.WriteString(e.Time.Format("15:04:05"))
	b.WriteByte(' ')
	b.WriteString(levelTag(e.Level))
	b.WriteByte(' ')
	b.WriteString(e.Message)
	for _, k := range slices.Sorted(maps.Keys(e.Attrs)) {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(e.Attrs[k])
	}
	return b.String()
}

func levelTag(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERR"
	case l >= slog.LevelWarn:
		return "WRN"
	case l >= slog.LevelInfo:
		return "INF"
	default:
		return "DBG"
	}
}

// ParseLevel converts a level name to a slog.Level. The empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", s)
	}
}

// ring is the shared storage behind every RingHandler derived from one Logger.
type ring struct {
	mu      sync.RWMutex
	entries []Entry
	max     int
	// seq counts every record ever stored, so readers can detect new entries.
	seq uint64
}

func (r *ring) add(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	if len(r.entries) > r.max {
		r.entries = r.entries[len(r.entries)-r.max:]
	}
	r.seq++
}

// RingHandler is a slog.Handler that keeps the most recent records in memory.
type RingHandler struct {
	ring   *ring
	level  slog.Leveler
	attrs  map[string]string // qualified with the groups open when added
	groups []string
}

// Enabled implements slog.Handler.
func (h *RingHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *RingHandler) Handle(_ context.Context, record slog.Record) error {
	attrs := make(map[string]string, len(h.attrs)+record.NumAttrs())
	for k, v := range h.attrs {
		attrs[k] = v
	}
	prefix := h.prefix()
	record.Attrs(func(a slog.Attr) bool {
		attrs[prefix+a.Key] = a.Value.Resolve().String()
		return true
	})
	if len(attrs) == 0 {
		attrs = nil
	}
	h.ring.add(Entry{
		Time:    record.Time,
		Level:   record.Level,
		Message: record.Message,
		Attrs:   attrs,
	})
	return nil
}

func (h *RingHandler) prefix() string {
	if len(h.groups) == 0 {
		return ""
	}
	return strings.Join(h.groups, ".") + "."
}

// WithAttrs implements slog.Handler.
func (h *RingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = maps.Clone(h.attrs)
	if c.attrs == nil {
		c.attrs = make(map[string]string, len(attrs))
	}
	prefix := h.prefix()
	for _, a := range attrs {
		c.attrs[prefix+a.Key] = a.Value.Resolve().String()
	}
	return &c
}

// WithGroup implements slog.Handler.
func (h *RingHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.groups = append(append([]string(nil), h.groups...), name)
	return &c
}

// teeHandler fans a record out to several handlers.
type teeHandler []slog.Handler

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, h := range t {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithGroup(name)
	}
	return out
}

// Options configures New.
type Options struct {
	// Level is the minimum level recorded. Defaults to info.
	Level slog.Level
	// BufferSize is the number of entries kept in memory. Defaults to 1000.
	BufferSize int
	// File, when non-nil, additionally receives every record as JSON.
	File io.Writer
}

// Logger couples a *slog.Logger with the ring of recent entries it writes.
type Logger struct {
	*slog.Logger
	ring *ring
}

// New builds a Logger from opts.
func New(opts Options) *Logger {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 1000
	}
	r := &ring{entries: make([]Entry, 0, min(opts.BufferSize, 256)), max: opts.BufferSize}
	var handler slog.Handler = &RingHandler{ring: r, level: opts.Level}
	if opts.File != nil {
		handler = teeHandler{handler, slog.NewJSONHandler(opts.File, &slog.HandlerOptions{Level: opts.Level})}
	}
	return &Logger{Logger: slog.New(handler), ring: r}
}

// Discard returns a Logger that keeps a small ring and writes nowhere else.
// Intended for tests and library defaults.
func Discard() *Logger {
	return New(Options{Level: slog.LevelDebug, BufferSize: 64})
}

// Recent returns up to count of the newest entries, oldest first. A count of
// zero or less returns everything held.
func (l *Logger) Recent(count int) []Entry {
	l.ring.mu.RLock()
	defer l.ring.mu.RUnlock()
	n := len(l.ring.entries)
	if count <= 0 || count > n {
		count = n
	}
	out := make([]Entry, count)
	copy(out, l.ring.entries[n-count:])
	return out
}

// Seq returns the number of entries ever recorded.
func (l *Logger) Seq() uint64 {
	l.ring.mu.RLock()
	defer l.ring.mu.RUnlock()
	return l.ring.seq
}

// Search returns the held entries whose message or attrs contain query,
// case-insensitively.
func (l *Logger) Search(query string) []Entry {
	l.ring.mu.RLock()
	defer l.ring.mu.RUnlock()
	query = strings.ToLower(query)
	var out []Entry
	for _, e := range l.ring.entries {
		if strings.Contains(strings.ToLower(e.Message), query) {
			out = append(out, e)
			continue
		}
		for k, v := range e.Attrs {
			if strings.Contains(strings.ToLower(k), query) || strings.Contains(strings.ToLower(v), query) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// Clear drops all held entries.
func (l *Logger) Clear() {
	l.ring.mu.Lock()
	defer l.ring.mu.Unlock()
	l.ring.entries = l.ring.entries[:0]
}
