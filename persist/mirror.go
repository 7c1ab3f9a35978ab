package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/c360/logdash/errors"
)

// Option configures a Mirror.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for fallback warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Mirror holds a value of type T and writes it through to a Backend.
// Writes reach the backend in the order they were applied in memory.
// Subscribers must not call Set or Update synchronously.
type Mirror[T any] struct {
	backend Backend
	key     string
	logger  *slog.Logger

	// writeMu serializes Update from fn through the backend write.
	writeMu sync.Mutex

	mu          sync.Mutex
	value       T
	subscribers map[int]func(T)
	nextID      int
}

// New loads key from backend, falling back to initial when the stored value
// is absent, null or undecodable.
func New[T any](ctx context.Context, backend Backend, key string, initial T, opts ...Option) *Mirror[T] {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	m := &Mirror[T]{
		backend:     backend,
		key:         key,
		logger:      o.logger.With("component", "persist", "key", key),
		value:       initial,
		subscribers: make(map[int]func(T)),
	}

	raw, ok, err := backend.Get(ctx, key)
	switch {
	case err != nil:
		m.logger.Warn("Failed to read persisted value, using default", "error", err)
	case !ok:
	case bytes.Equal(bytes.TrimSpace(raw), []byte("null")):
	default:
		var decoded T
		if err := json.Unmarshal(raw, &decoded); err != nil {
			m.logger.Warn("Corrupt persisted value, using default", "error", err)
		} else {
			m.value = decoded
		}
	}

	return m
}

// Key returns the backend key.
func (m *Mirror[T]) Key() string {
	return m.key
}

// Get returns the current value.
func (m *Mirror[T]) Get() T {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value
}

// Set replaces the value, notifies subscribers and writes it to the backend.
func (m *Mirror[T]) Set(ctx context.Context, value T) error {
	return m.Update(ctx, func(T) T { return value })
}

// Update applies fn to the current value atomically and persists the result.
func (m *Mirror[T]) Update(ctx context.Context, fn func(T) T) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.Lock()
	next := fn(m.value)
	data, err := json.Marshal(next)
	if err != nil {
		m.mu.Unlock()
		return errors.WrapInvalid(err, "Mirror", "Update", "marshal value")
	}
	m.value = next
	subs := make([]func(T), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, sub := range subs {
		sub(next)
	}

	if err := m.backend.Set(ctx, m.key, data); err != nil {
		return errors.WrapTransient(err, "Mirror", "Update", "write backend")
	}
	return nil
}

// Subscribe registers fn to receive every new value. The returned function
// removes the subscription.
func (m *Mirror[T]) Subscribe(fn func(T)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subscribers[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subscribers, id)
		m.mu.Unlock()
	}
}
