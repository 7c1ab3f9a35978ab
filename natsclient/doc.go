// Package natsclient manages a NATS connection and exposes JetStream
// key-value buckets.
//
// logdash uses it as the durable storage backend: persisted dashboard state
// (query history, saved preferences) lives in a KV bucket so it survives
// process restarts.
//
//	client, err := natsclient.NewClient("nats://localhost:4222",
//	    natsclient.WithName("logdash"),
//	    natsclient.WithLogger(logger))
//	if err := client.Connect(ctx); err != nil { ... }
//	bucket, err := client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{Bucket: "logdash"})
//	kv := client.NewKVStore(bucket)
//
// Connection state is tracked as a ConnectionStatus and follows the
// nats.go disconnect, reconnect and closed callbacks. TestClient starts a
// throwaway NATS server in a container for integration tests.
package natsclient
