package view

import "sync"

// DefaultPageSize is used when a Pager is created with a non-positive size.
const DefaultPageSize = 50

// Page is one window onto a collection.
type Page[T any] struct {
	Items      []T
	Page       int
	PageSize   int
	TotalItems int
	TotalPages int
	HasMore    bool
	HasPrev    bool
}

// Paginate returns the page-th window of pageSize items. Pages past the end
// are empty.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page < 0 {
		page = 0
	}

	total := len(items)
	start := min(page*pageSize, total)
	end := min(start+pageSize, total)

	return Page[T]{
		Items:      items[start:end],
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: (total + pageSize - 1) / pageSize,
		HasMore:    page*pageSize+pageSize < total,
		HasPrev:    page > 0,
	}
}

// ItemSource is anything a Pager can page over.
type ItemSource[T any] interface {
	Items() []T
	Subscribe(fn func([]T)) func()
}

// Pager pages over an ItemSource, keeping its page index across source
// updates.
type Pager[T any] struct {
	source   ItemSource[T]
	pageSize int

	mu   sync.Mutex
	page int
}

// NewPager creates a Pager starting at page 0.
func NewPager[T any](source ItemSource[T], pageSize int) *Pager[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Pager[T]{source: source, pageSize: pageSize}
}

// Current returns the current page.
func (p *Pager[T]) Current() Page[T] {
	p.mu.Lock()
	page := p.page
	p.mu.Unlock()
	return Paginate(p.source.Items(), page, p.pageSize)
}

// NextPage advances one page. It does not stop at the last page.
func (p *Pager[T]) NextPage() {
	p.mu.Lock()
	p.page++
	p.mu.Unlock()
}

// PrevPage goes back one page, never below 0.
func (p *Pager[T]) PrevPage() {
	p.mu.Lock()
	p.page = max(0, p.page-1)
	p.mu.Unlock()
}

// Reset returns to page 0.
func (p *Pager[T]) Reset() {
	p.mu.Lock()
	p.page = 0
	p.mu.Unlock()
}

// Subscribe calls fn with the current page whenever the source changes.
func (p *Pager[T]) Subscribe(fn func(Page[T])) func() {
	return p.source.Subscribe(func(items []T) {
		p.mu.Lock()
		page := p.page
		p.mu.Unlock()
		fn(Paginate(items, page, p.pageSize))
	})
}
