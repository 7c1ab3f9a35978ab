// Package query holds the paginated query store: the current query
// parameters, the latest published result, and the loading state.
//
// Every effective parameter change issues one fetch tagged with a
// monotonically increasing token. Only the result carrying the latest token
// is published; results of superseded fetches are dropped, so a slow early
// response never overwrites a fast later one.
//
//	store, err := query.NewStore[types.LogEntry](query.NewHTTPFetcher[types.LogEntry](endpoint),
//		query.WithLimit(50),
//		query.WithHistory(hist),
//	)
//	store.Subscribe(func(s query.State[types.LogEntry]) { render(s) })
//	store.Start(ctx)
//	store.SetQuery("level:error")
package query
