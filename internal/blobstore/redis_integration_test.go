//go:build integration

package blobstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7.4-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate redis container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, err := NewRedisStore(RedisConfig{Addr: startRedis(t)})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	location, err := store.Store(ctx, "abc123", []byte("%PDF-1.4"))
	require.NoError(t, err)

	data, err := store.Fetch(ctx, location)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), data)

	_, err = store.Fetch(ctx, "missing")
	assert.ErrorIs(t, err, ErrBlobNotFound)
}

func TestRedisStoreTTL(t *testing.T) {
	store, err := NewRedisStore(RedisConfig{Addr: startRedis(t), TTL: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	location, err := store.Store(ctx, "ephemeral", []byte("data"))
	require.NoError(t, err)

	time.Sleep(1500 * time.Millisecond)
	_, err = store.Fetch(ctx, location)
	assert.ErrorIs(t, err, ErrBlobNotFound)
}
