// Package persist mirrors a value into a key/value backend as JSON so it
// outlives the component that owns it.
//
// Two backends are provided. NewMemoryBackend keeps values for the life of
// the process (session scope). NewKVBackend writes them to a NATS JetStream
// KV bucket (durable across restarts). Both hold raw JSON bytes under a
// string key; Mirror does the encoding.
//
//	backend, _ := persist.NewKVBackend(ctx, natsClient, "logdash")
//	prefs := persist.New(ctx, backend, "prefs", Prefs{PageSize: 20})
//	prefs.Update(ctx, func(p Prefs) Prefs { p.PageSize = 50; return p })
//
// Reads never fail: an absent key, a stored JSON null, undecodable bytes or
// a backend error all fall back to the default passed to New. Write
// failures are returned as transient errors; the in-memory value is still
// updated.
package persist
