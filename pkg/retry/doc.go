// Package retry provides exponential backoff for transient failures.
//
// Two shapes are offered:
//
//   - Backoff: a stateful delay source for loops that never give up, such as
//     the stream client's reconnect loop. Next returns the current delay and
//     doubles it up to the ceiling; Reset returns to the floor after a success.
//   - Do: a bounded retry of a single operation, used at startup to reach the
//     NATS server before the durable store is opened.
//
//	backoff := retry.NewBackoff(time.Second, 10*time.Second, 2)
//	for {
//	    if err := dial(); err != nil {
//	        _ = retry.Sleep(ctx, backoff.Next())
//	        continue
//	    }
//	    backoff.Reset()
//	}
//
// All waits respect context cancellation.
package retry
