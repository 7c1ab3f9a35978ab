package query

import (
	"context"
	"time"

	"github.com/c360/logdash/timerange"
)

// Params are the inputs of one query request. Page is zero-based.
type Params struct {
	Query     string
	Page      int
	Limit     int
	TimeRange *timerange.Range
}

func (p Params) equalRange(r *timerange.Range) bool {
	switch {
	case p.TimeRange == nil && r == nil:
		return true
	case p.TimeRange == nil || r == nil:
		return false
	default:
		return p.TimeRange.Equal(*r)
	}
}

// Meta is the pagination metadata returned by the query endpoint.
type Meta struct {
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
	Page            int  `json:"page"`
	TotalPages      int  `json:"totalPages"`
}

// Result is the outcome of one fetch. A failed fetch carries Error and no
// results.
type Result[T any] struct {
	Error    string
	Results  []T
	Meta     Meta
	Duration time.Duration
	Params   Params
}

// OK reports whether the fetch succeeded.
func (r Result[T]) OK() bool {
	return r.Error == ""
}

// State is what a Store publishes to subscribers.
type State[T any] struct {
	Params  Params
	Result  Result[T]
	Loading bool
}

// Fetcher executes a query. Failures are reported through Result.Error.
type Fetcher[T any] interface {
	Fetch(ctx context.Context, p Params) Result[T]
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc[T any] func(ctx context.Context, p Params) Result[T]

// Fetch calls f.
func (f FetcherFunc[T]) Fetch(ctx context.Context, p Params) Result[T] {
	return f(ctx, p)
}

// Recorder receives settled queries. history.History implements it.
type Recorder interface {
	Record(ctx context.Context, query string, ok bool) error
}
