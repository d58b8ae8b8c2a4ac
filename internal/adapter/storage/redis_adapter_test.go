package storage

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestRedisGet_Miss(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)
	client.Del(ctx, "/seller-catalog/missing")

	val, ok, err := adapter.Get(ctx, "/seller-catalog/missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestRedisSetGet_ExactKeyAndTTL(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)
	key := "/seller-catalog/test-seller"
	defer client.Del(ctx, key)

	require.NoError(t, adapter.Set(ctx, key, []byte(`["pen","book"]`), 1800*time.Second))

	// The payload is stored verbatim under the exact key.
	raw, err := client.Get(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, `["pen","book"]`, raw)

	ttl, err := client.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.InDelta(t, 1800, ttl.Seconds(), 2)

	val, ok, err := adapter.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`["pen","book"]`), val)
}

func TestRedisGet_DoesNotRefreshTTL(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)
	key := "/orders/ttl-test"
	defer client.Del(ctx, key)

	require.NoError(t, adapter.Set(ctx, key, []byte(`[["pen"]]`), 900*time.Second))
	require.NoError(t, client.Expire(ctx, key, 100*time.Second).Err())

	_, ok, err := adapter.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)

	ttl, err := client.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, ttl.Seconds(), 100.0)
}

func TestRedisSet_Expires(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)
	key := "/list-of-sellers/expiry-test"
	defer client.Del(ctx, key)

	require.NoError(t, adapter.Set(ctx, key, []byte(`["s"]`), time.Second))
	time.Sleep(1500 * time.Millisecond)

	_, ok, err := adapter.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisDelete_Idempotent(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)
	key := "/list-of-sellers/"

	require.NoError(t, adapter.Set(ctx, key, []byte(`["s"]`), time.Minute))
	require.NoError(t, adapter.Delete(ctx, key))
	require.NoError(t, adapter.Delete(ctx, key))

	_, ok, err := adapter.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_ConcurrentSetDelete(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)
	key := "/seller-catalog/concurrent-test"
	defer client.Del(ctx, key)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, adapter.Set(ctx, key, []byte(`["pen"]`), time.Minute))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, adapter.Delete(ctx, key))
		}()
	}
	wg.Wait()

	val, ok, err := adapter.Get(ctx, key)
	require.NoError(t, err)
	if ok {
		assert.Equal(t, []byte(`["pen"]`), val)
	}
}
