// Package history keeps the list of recently run queries, newest first,
// persisted through a persist.Backend.
package history

import (
	"context"
	"log/slog"
	"time"

	"github.com/c360/logdash/persist"
	"github.com/c360/logdash/pkg/timestamp"
)

const (
	// Key is the backend key the history is stored under.
	Key = "queryHistory"
	// MaxEntries caps the stored history.
	MaxEntries = 25
)

// Entry records one executed query.
type Entry struct {
	Query     string `json:"query"`
	OK        bool   `json:"ok"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
}

// Time returns the entry timestamp as a time.Time.
func (e Entry) Time() time.Time {
	return timestamp.FromUnixMs(e.Timestamp)
}

// History is a durable, de-duplicated list of recent queries.
type History struct {
	mirror *persist.Mirror[[]Entry]
	now    func() time.Time
}

// Option configures a History.
type Option func(*History)

// WithClock overrides the time source used by Record.
func WithClock(now func() time.Time) Option {
	return func(h *History) {
		if now != nil {
			h.now = now
		}
	}
}

// New loads the history from backend.
func New(ctx context.Context, backend persist.Backend, logger *slog.Logger, opts ...Option) *History {
	h := &History{
		mirror: persist.New(ctx, backend, Key, []Entry{}, persist.WithLogger(logger)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Add puts entry first, dropping any older entry with the same query text,
// and trims the list to MaxEntries.
func (h *History) Add(ctx context.Context, entry Entry) error {
	return h.mirror.Update(ctx, func(current []Entry) []Entry {
		next := make([]Entry, 0, min(len(current)+1, MaxEntries))
		next = append(next, entry)
		for _, e := range current {
			if len(next) == MaxEntries {
				break
			}
			if e.Query != entry.Query {
				next = append(next, e)
			}
		}
		return next
	})
}

// Record adds query with the current time.
func (h *History) Record(ctx context.Context, query string, ok bool) error {
	return h.Add(ctx, Entry{Query: query, OK: ok, Timestamp: timestamp.ToUnixMs(h.now())})
}

// Clear removes every entry.
func (h *History) Clear(ctx context.Context) error {
	return h.mirror.Set(ctx, []Entry{})
}

// Entries returns a copy of the history, newest first.
func (h *History) Entries() []Entry {
	current := h.mirror.Get()
	out := make([]Entry, len(current))
	copy(out, current)
	return out
}

// Subscribe registers fn to receive the history after every change.
func (h *History) Subscribe(fn func([]Entry)) func() {
	return h.mirror.Subscribe(fn)
}
