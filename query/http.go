package query

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	isoMillis       = "2006-01-02T15:04:05.000Z"
	maxResponseSize = 32 << 20
)

// HTTPFetcher queries an endpoint with
// GET <endpoint>?q=&limit=&page=&from=&to= and decodes
// {"data": [...], "meta": {...}}.
type HTTPFetcher[T any] struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*httpConfig)

type httpConfig struct {
	client *http.Client
	logger *slog.Logger
}

// WithHTTPClient sets the client used for requests.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(cfg *httpConfig) {
		if c != nil {
			cfg.client = c
		}
	}
}

// WithHTTPLogger sets the fetcher's logger.
func WithHTTPLogger(logger *slog.Logger) HTTPOption {
	return func(cfg *httpConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// NewHTTPFetcher creates a fetcher for endpoint.
func NewHTTPFetcher[T any](endpoint string, opts ...HTTPOption) *HTTPFetcher[T] {
	cfg := &httpConfig{
		client: &http.Client{Timeout: 30 * time.Second},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &HTTPFetcher[T]{
		endpoint: endpoint,
		client:   cfg.client,
		logger:   cfg.logger.With("component", "query-http"),
	}
}

type response[T any] struct {
	Data []T   `json:"data"`
	Meta *Meta `json:"meta"`
}

// Fetch implements Fetcher.
func (f *HTTPFetcher[T]) Fetch(ctx context.Context, p Params) Result[T] {
	start := time.Now()
	res := f.do(ctx, p)
	res.Duration = time.Since(start)
	res.Params = p
	return res
}

func (f *HTTPFetcher[T]) do(ctx context.Context, p Params) Result[T] {
	target, err := f.buildURL(p)
	if err != nil {
		return failure[T](err, "Query failed")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return failure[T](err, "Query failed")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Debug("Query request failed", "url", target, "error", err)
		return failure[T](err, "Query failed")
	}
	defer resp.Body.Close()

	body := io.LimitReader(resp.Body, maxResponseSize)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(body)
		msg := strings.TrimSpace(string(text))
		if msg == "" {
			msg = "Unknown error"
		}
		return Result[T]{Error: msg}
	}

	var decoded response[T]
	if err := json.NewDecoder(body).Decode(&decoded); err != nil {
		return failure[T](err, "Query failed")
	}

	out := Result[T]{Results: decoded.Data}
	if out.Results == nil {
		out.Results = []T{}
	}
	if decoded.Meta != nil {
		out.Meta = *decoded.Meta
	}
	return out
}

func (f *HTTPFetcher[T]) buildURL(p Params) (string, error) {
	u, err := url.Parse(f.endpoint)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("q", p.Query)
	q.Set("limit", strconv.Itoa(p.Limit))
	q.Set("page", strconv.Itoa(p.Page))
	if p.TimeRange != nil {
		if !p.TimeRange.From.IsZero() {
			q.Set("from", p.TimeRange.From.UTC().Format(isoMillis))
		}
		if !p.TimeRange.To.IsZero() {
			q.Set("to", p.TimeRange.To.UTC().Format(isoMillis))
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func failure[T any](err error, fallback string) Result[T] {
	msg := fallback
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return Result[T]{Error: msg}
}
