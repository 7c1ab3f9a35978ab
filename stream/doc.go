// Package stream maintains one logical WebSocket connection to a log stream
// endpoint and delivers decoded messages to a typed Sink.
//
// The client never gives up: every close, clean or not, is followed by a
// reconnect after a capped exponential backoff (1s doubling to 10s by
// default). A successful open resets the delay to the floor.
//
// State machine:
//
//	connecting -> open -> [error ->] closed -> connecting -> ...
//	any state  -> shutdown (terminal, via Close)
//
// Each inbound frame may carry several newline-delimited JSON objects. Each
// line is decoded into T and handed to the sink in arrival order from the
// client's single run goroutine. Lines that fail to decode are counted and
// logged (rate-limited) and never interrupt the stream.
//
// Every connection attempt is tagged with a fresh connection ID. State
// changes reported for an ID that is no longer current are dropped, so a
// late error from a socket being torn down cannot disturb its successor.
package stream
