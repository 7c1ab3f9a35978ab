// Package errors provides standardized error handling for logdash components.
//
// # Classification
//
// Every error leaving a component is classified:
//
//   - Transient: socket drops, dial failures, storage unavailable. The stream
//     client answers these with a reconnect; the query store surfaces them as
//     a result error and tries again on the next parameter change.
//   - Invalid: malformed stream messages, undecodable stored values, bad
//     parameters. Never retried.
//   - Fatal: broken configuration. The CLI exits.
//
// # Wrapping
//
// All wrapping follows "component.method: action failed: %w":
//
//	if err := kv.Put(ctx, key, data); err != nil {
//	    return errors.WrapTransient(err, "persist", "Set", "write value")
//	}
//
// The returned *ClassifiedError supports errors.Is and errors.As through the
// chain, so sentinels like ErrKeyNotFound stay matchable after wrapping.
package errors
