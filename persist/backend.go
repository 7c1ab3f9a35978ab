package persist

import (
	"bytes"
	"context"

	"github.com/klauspost/compress/zstd"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360/logdash/errors"
	"github.com/c360/logdash/metric"
	"github.com/c360/logdash/natsclient"
	"github.com/c360/logdash/pkg/cache"
)

// Backend stores raw values under string keys.
type Backend interface {
	// Get returns the stored bytes and true, or false when the key is absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
}

// MemoryBackend is a process-scoped Backend.
type MemoryBackend struct {
	cache cache.Cache[[]byte]
}

// NewMemoryBackend creates an in-process backend. A non-nil registry exports
// cache hit/miss metrics under the "session" label.
func NewMemoryBackend(registry *metric.MetricsRegistry) (*MemoryBackend, error) {
	var opts []cache.Option[[]byte]
	if registry != nil {
		opts = append(opts, cache.WithMetrics[[]byte](registry, "session"))
	}
	c, err := cache.NewSimple(opts...)
	if err != nil {
		return nil, errors.WrapTransient(err, "MemoryBackend", "New", "create cache")
	}
	return &MemoryBackend{cache: c}, nil
}

// Get implements Backend.
func (b *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := b.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set implements Backend.
func (b *MemoryBackend) Set(_ context.Context, key string, value []byte) error {
	_, err := b.cache.Set(key, append([]byte(nil), value...))
	return err
}

// kvStore is the subset of natsclient.KVStore used by KVBackend.
type kvStore interface {
	Get(ctx context.Context, key string) (*natsclient.KVEntry, error)
	Put(ctx context.Context, key string, value []byte) (uint64, error)
}

// zstdMagic prefixes every zstd frame. JSON values never start with it, so
// compressed and plain values can share a bucket.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// KVOption configures a KVBackend.
type KVOption func(*KVBackend) error

// WithCompression zstd-compresses values on Set.
func WithCompression() KVOption {
	return func(b *KVBackend) error {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
		if err != nil {
			return err
		}
		b.enc = enc
		return nil
	}
}

// KVBackend is a durable Backend over a NATS JetStream KV bucket.
type KVBackend struct {
	kv  kvStore
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewKVBackend opens (or creates) bucket on a connected client.
func NewKVBackend(ctx context.Context, client *natsclient.Client, bucket string, opts ...KVOption) (*KVBackend, error) {
	if client == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "KVBackend", "New", "nats client cannot be nil")
	}
	if bucket == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "KVBackend", "New", "bucket name cannot be empty")
	}

	b, err := client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "logdash persisted dashboard state",
		History:     1,
	})
	if err != nil {
		return nil, errors.WrapTransient(err, "KVBackend", "New", "create KV bucket")
	}

	return newKVBackend(client.NewKVStore(b), opts...)
}

func newKVBackend(kv kvStore, opts ...KVOption) (*KVBackend, error) {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, errors.WrapFatal(err, "KVBackend", "New", "create zstd decoder")
	}
	backend := &KVBackend{kv: kv, dec: dec}
	for _, opt := range opts {
		if err := opt(backend); err != nil {
			dec.Close()
			return nil, errors.WrapFatal(err, "KVBackend", "New", "apply option")
		}
	}
	return backend, nil
}

// Get implements Backend.
func (b *KVBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	entry, err := b.kv.Get(ctx, key)
	if err != nil {
		if natsclient.IsKVNotFoundError(err) {
			return nil, false, nil
		}
		return nil, false, errors.WrapTransient(err, "KVBackend", "Get", "get from KV")
	}
	if !bytes.HasPrefix(entry.Value, zstdMagic) {
		return entry.Value, true, nil
	}
	raw, err := b.dec.DecodeAll(entry.Value, nil)
	if err != nil {
		return nil, false, errors.WrapInvalid(err, "KVBackend", "Get", "decompress value")
	}
	return raw, true, nil
}

// Set implements Backend.
func (b *KVBackend) Set(ctx context.Context, key string, value []byte) error {
	if b.enc != nil {
		value = b.enc.EncodeAll(value, make([]byte, 0, len(value)))
	}
	if _, err := b.kv.Put(ctx, key, value); err != nil {
		return errors.WrapTransient(err, "KVBackend", "Set", "put to KV")
	}
	return nil
}

// Close releases the codec resources.
func (b *KVBackend) Close() error {
	if b.enc != nil {
		if err := b.enc.Close(); err != nil {
			return err
		}
	}
	b.dec.Close()
	return nil
}
