package natsclient

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/logdash/errors"
)

func TestNewClient(t *testing.T) {
	client, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	assert.Equal(t, "nats://localhost:4222", client.URL())
	assert.Equal(t, StatusDisconnected, client.Status())
	assert.False(t, client.IsHealthy())
	assert.Nil(t, client.GetConnection())
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient("")
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	_, err = NewClient("nats://localhost:4222", WithTimeout(0))
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	_, err = NewClient("nats://localhost:4222", WithReconnectWait(-time.Second))
	require.Error(t, err)
}

func TestBuildConnectionOptions(t *testing.T) {
	plain, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	named, err := NewClient("nats://localhost:4222", WithName("logdash"))
	require.NoError(t, err)

	assert.Len(t, named.buildConnectionOptions(), len(plain.buildConnectionOptions())+1)
}

func TestConnectionStatus_String(t *testing.T) {
	tests := []struct {
		status ConnectionStatus
		want   string
	}{
		{StatusDisconnected, "disconnected"},
		{StatusConnecting, "connecting"},
		{StatusConnected, "connected"},
		{StatusReconnecting, "reconnecting"},
		{StatusClosed, "closed"},
		{ConnectionStatus(99), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.String())
	}
}

func TestClient_HealthCallback(t *testing.T) {
	var changes []bool
	client, err := NewClient("nats://localhost:4222",
		WithHealthChangeCallback(func(healthy bool) { changes = append(changes, healthy) }))
	require.NoError(t, err)

	client.setStatus(StatusConnecting)
	client.setStatus(StatusConnected)
	client.setStatus(StatusConnected)
	client.setStatus(StatusReconnecting)
	client.setStatus(StatusConnected)

	assert.Equal(t, []bool{true, false, true}, changes)
}

func TestClient_NotConnected(t *testing.T) {
	client, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	ctx := context.Background()
	_, err = client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{Bucket: "x"})
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = client.GetKeyValueBucket(ctx, "x")
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = client.JetStream()
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestClient_CloseIdempotent(t *testing.T) {
	client, err := NewClient("nats://localhost:4222")
	require.NoError(t, err)

	require.NoError(t, client.Close(context.Background()))
	require.NoError(t, client.Close(context.Background()))
	assert.Equal(t, StatusClosed, client.Status())

	err = client.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}

func TestConnect_Unreachable(t *testing.T) {
	client, err := NewClient("nats://127.0.0.1:1",
		WithTimeout(200*time.Millisecond), WithMaxReconnects(0))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err = client.Connect(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
	assert.Equal(t, StatusDisconnected, client.Status())
}

func TestIsKVNotFoundError(t *testing.T) {
	assert.False(t, IsKVNotFoundError(nil))
	assert.True(t, IsKVNotFoundError(ErrKVKeyNotFound))
	assert.True(t, IsKVNotFoundError(jetstream.ErrKeyNotFound))
	assert.False(t, IsKVNotFoundError(context.Canceled))
}
