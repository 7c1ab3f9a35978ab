// Package ingest decouples the arrival rate of stream messages from the rate
// at which consumers see them.
//
// Add pushes an item into a pending stage, newest first and capped at the
// buffer capacity. The first Add after a flush arms a single timer; later
// Adds inside that window do not re-arm it. When the timer fires, and the
// buffer is not paused, the whole pending stage is prepended to the visible
// collection, the result is trimmed to capacity, and subscribers are told
// once. A burst of N items inside one window therefore produces exactly one
// Update.
//
// The flush timer is the only writer of the visible collection. While
// paused, items keep accumulating in the pending stage (still capped) and are
// applied together on the first flush after unpausing.
//
//	buf, _ := ingest.New[types.LogEntry](ingest.WithCapacity(500))
//	buf.Subscribe(func(u ingest.Update[types.LogEntry]) { render(u.Items) })
//	client, _ := stream.NewClient(url, stream.SinkFunc[types.LogEntry](buf.Add))
package ingest
