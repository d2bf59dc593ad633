package redisstore_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-task-client/sessions"
	"github.com/jrsteele09/go-task-client/sessions/redisstore"
	"github.com/jrsteele09/go-task-client/sessions/storetest"
)

// newTestClient connects to TEST_REDIS_ADDR, skipping the test when it is unset
func newTestClient(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("TEST_REDIS_PASSWORD")})
	require.NoError(t, client.Ping(context.Background()).Err())
	t.Cleanup(func() { client.Close() })
	return client
}

func TestStoreContract(t *testing.T) {
	client := newTestClient(t)

	storetest.Run(t, func(t *testing.T) sessions.Store {
		key := fmt.Sprintf("taskdesk:test:%s", uuid.NewString())
		t.Cleanup(func() { client.Del(context.Background(), key) })
		return redisstore.New(client, key)
	})
}

func TestSetZeroSessionClears(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	key := fmt.Sprintf("taskdesk:test:%s", uuid.NewString())
	t.Cleanup(func() { client.Del(ctx, key) })

	s := redisstore.New(client, key)
	require.NoError(t, s.Set(ctx, storetest.Sample))
	require.NoError(t, s.Set(ctx, sessions.Session{}))

	exists, err := client.Exists(ctx, key).Result()
	require.NoError(t, err)
	require.Zero(t, exists)
}
