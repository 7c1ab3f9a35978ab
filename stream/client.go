package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/c360/logdash/errors"
	"github.com/c360/logdash/pkg/retry"
)

// Client owns one logical WebSocket connection and reconnects forever
// until Close is called.
type Client[T any] struct {
	url       string
	sink      Sink[T]
	dialer    *websocket.Dialer
	backoff   *retry.Backoff
	logger    *slog.Logger
	metrics   *clientMetrics
	decodeLog *rate.Limiter

	notifyMu  sync.Mutex // orders state changes with their listener calls
	mu        sync.Mutex
	state     State
	connID    string
	conn      *websocket.Conn
	listeners map[int]func(State)
	nextID    int
	cancel    context.CancelFunc
	done      chan struct{}

	attempts     atomic.Int64
	connects     atomic.Int64
	messages     atomic.Int64
	decodeErrors atomic.Int64
}

// NewClient creates a client for url delivering decoded messages to sink.
// The client is idle until Start.
func NewClient[T any](url string, sink Sink[T], opts ...Option) (*Client[T], error) {
	if url == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Client", "NewClient", "url is required")
	}
	if sink == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Client", "NewClient", "sink is required")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	metrics, err := newClientMetrics(cfg.registry, cfg.metricsName)
	if err != nil {
		return nil, errors.WrapTransient(err, "Client", "NewClient", "register metrics")
	}

	return &Client[T]{
		url:       url,
		sink:      sink,
		dialer:    cfg.dialer,
		backoff:   retry.NewBackoff(cfg.floor, cfg.ceiling, 2.0),
		logger:    cfg.logger.With("component", "stream", "url", url),
		metrics:   metrics,
		decodeLog: rate.NewLimiter(cfg.decodeLimit, cfg.decodeBurst),
		state:     StateConnecting,
		listeners: make(map[int]func(State)),
	}, nil
}

// Start launches the connection loop. It returns immediately.
func (c *Client[T]) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateShutdown {
		return errors.WrapFatal(errors.ErrShuttingDown, "Client", "Start", "start after close")
	}
	if c.done != nil {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Client", "Start", "start")
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.run(runCtx, c.done)
	return nil
}

// Close cancels any pending reconnect, closes the active socket and moves
// the client to StateShutdown. It waits for the run loop to exit and is
// safe to call more than once.
func (c *Client[T]) Close() error {
	c.notifyMu.Lock()
	c.mu.Lock()
	if c.state == StateShutdown {
		done := c.done
		c.mu.Unlock()
		c.notifyMu.Unlock()
		if done != nil {
			<-done
		}
		return nil
	}
	c.state = StateShutdown
	c.connID = ""
	conn := c.conn
	c.conn = nil
	cancel, done := c.cancel, c.done
	listeners := c.listenerSnapshot()
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutdown")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = conn.Close()
	}

	c.recordState(StateShutdown)
	for _, fn := range listeners {
		fn(StateShutdown)
	}
	c.notifyMu.Unlock()

	if done != nil {
		<-done
	}
	c.logger.Info("Stream client shut down")
	return nil
}

// Done is closed when the run loop has exited. It is nil before Start.
func (c *Client[T]) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// State returns the current connection state.
func (c *Client[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnStateChange registers fn to be called with every new state. The
// returned function removes the registration.
//
// Listeners run on the client's run loop in transition order. They must not
// call Close synchronously; use "go client.Close()" to give up from a
// listener.
func (c *Client[T]) OnStateChange(fn func(State)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Stats returns a snapshot of client counters.
func (c *Client[T]) Stats() Stats {
	c.mu.Lock()
	state, id := c.state, c.connID
	c.mu.Unlock()

	return Stats{
		State:        state,
		ConnectionID: id,
		Attempts:     c.attempts.Load(),
		Connects:     c.connects.Load(),
		Messages:     c.messages.Load(),
		DecodeErrors: c.decodeErrors.Load(),
		NextBackoff:  c.backoff.Peek(),
	}
}

func (c *Client[T]) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		id := uuid.NewString()
		c.mu.Lock()
		if c.state == StateShutdown {
			c.mu.Unlock()
			return
		}
		c.connID = id
		c.mu.Unlock()

		c.transition(id, StateConnecting)
		c.attempts.Add(1)
		if c.metrics != nil {
			c.metrics.attempts.Inc()
		}

		failed := c.connect(ctx, id)
		if ctx.Err() != nil {
			return
		}
		if failed {
			c.transition(id, StateError)
		}
		c.transition(id, StateClosed)

		delay := c.backoff.Next()
		c.logger.Debug("Reconnecting", "delay", delay, "connection_id", id)
		if err := retry.Sleep(ctx, delay); err != nil {
			return
		}
	}
}

// connect dials, reads until the socket closes and reports whether the
// close was error-triggered.
func (c *Client[T]) connect(ctx context.Context, id string) bool {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Warn("Stream dial failed", "error", err)
		}
		return true
	}

	c.mu.Lock()
	if c.state == StateShutdown || c.connID != id {
		c.mu.Unlock()
		_ = conn.Close()
		return false
	}
	c.conn = conn
	c.mu.Unlock()

	c.backoff.Reset()
	c.connects.Add(1)
	if c.metrics != nil {
		c.metrics.connects.Inc()
	}
	c.transition(id, StateOpen)
	c.logger.Info("Stream connected", "connection_id", id)

	err = c.readLoop(conn)

	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
	_ = conn.Close()

	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.logger.Info("Stream closed by server", "connection_id", id)
		return false
	}
	if ctx.Err() == nil {
		c.logger.Warn("Stream connection lost", "connection_id", id, "error", err)
	}
	return true
}

func (c *Client[T]) readLoop(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.handleFrame(data)
	}
}

// handleFrame decodes each non-empty line of a frame and delivers it.
func (c *Client[T]) handleFrame(data []byte) {
	for len(data) > 0 {
		var line []byte
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line, data = data[:i], data[i+1:]
		} else {
			line, data = data, nil
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var msg T
		if err := json.Unmarshal(line, &msg); err != nil {
			c.decodeErrors.Add(1)
			if c.metrics != nil {
				c.metrics.decodeErrors.Inc()
			}
			if c.decodeLog.Allow() {
				c.logger.Warn("Discarding malformed message", "error", err, "bytes", len(line))
			}
			continue
		}

		c.messages.Add(1)
		if c.metrics != nil {
			c.metrics.messages.Inc()
		}
		c.sink.Handle(msg)
	}
}

// transition moves to next if id is still the current connection and the
// client is not shut down. Listeners run outside the lock.
func (c *Client[T]) transition(id string, next State) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	if c.state == StateShutdown || c.connID != id || c.state == next {
		c.mu.Unlock()
		return
	}
	c.state = next
	listeners := c.listenerSnapshot()
	c.mu.Unlock()

	c.recordState(next)
	for _, fn := range listeners {
		fn(next)
	}
}

func (c *Client[T]) recordState(s State) {
	if c.metrics != nil {
		c.metrics.state.Set(s.gaugeValue())
	}
}

// listenerSnapshot must be called with c.mu held.
func (c *Client[T]) listenerSnapshot() []func(State) {
	out := make([]func(State), 0, len(c.listeners))
	for _, fn := range c.listeners {
		out = append(out, fn)
	}
	return out
}
