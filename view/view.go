package view

import (
	"sync"

	"github.com/c360/logdash/ingest"
)

// Source is a collection that announces its changes.
type Source[T any] interface {
	Snapshot() []T
	Subscribe(fn func(ingest.Update[T])) func()
}

// View is the filtered projection of a Source.
type View[T Fielder] struct {
	source      Source[T]
	unsubscribe func()

	notifyMu sync.Mutex
	mu       sync.Mutex
	filter   string
	items    []T
	subs     map[int]func([]T)
	nextID   int
}

// New creates a View over source with an empty filter.
func New[T Fielder](source Source[T]) *View[T] {
	v := &View[T]{
		source: source,
		items:  source.Snapshot(),
		subs:   make(map[int]func([]T)),
	}
	v.unsubscribe = source.Subscribe(v.onUpdate)
	return v
}

func (v *View[T]) onUpdate(u ingest.Update[T]) {
	v.notifyMu.Lock()
	defer v.notifyMu.Unlock()

	v.mu.Lock()
	v.items = Apply(u.Items, v.filter)
	items, subs := v.items, v.snapshotSubs()
	v.mu.Unlock()

	for _, fn := range subs {
		fn(items)
	}
}

// SetFilter changes the filter text and recomputes synchronously.
func (v *View[T]) SetFilter(filter string) {
	v.notifyMu.Lock()
	defer v.notifyMu.Unlock()

	v.mu.Lock()
	if filter == v.filter {
		v.mu.Unlock()
		return
	}
	v.filter = filter
	v.items = Apply(v.source.Snapshot(), filter)
	items, subs := v.items, v.snapshotSubs()
	v.mu.Unlock()

	for _, fn := range subs {
		fn(items)
	}
}

// Filter returns the current filter text.
func (v *View[T]) Filter() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filter
}

// Items returns the current projection. The slice must not be modified.
func (v *View[T]) Items() []T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.items
}

// Subscribe registers fn for every recomputation. The returned function
// unsubscribes.
func (v *View[T]) Subscribe(fn func([]T)) func() {
	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.subs[id] = fn
	v.mu.Unlock()

	return func() {
		v.mu.Lock()
		delete(v.subs, id)
		v.mu.Unlock()
	}
}

// Close detaches the view from its source.
func (v *View[T]) Close() {
	if v.unsubscribe != nil {
		v.unsubscribe()
	}
}

func (v *View[T]) snapshotSubs() []func([]T) {
	out := make([]func([]T), 0, len(v.subs))
	for _, fn := range v.subs {
		out = append(out, fn)
	}
	return out
}
