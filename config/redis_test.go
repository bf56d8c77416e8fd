package config

import (
	"sync"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// resetRedisState clears both the config and redis singletons so each test
// sees a fresh ConnectRedis, regardless of which test ran before it.
func resetRedisState(t *testing.T) {
	t.Helper()
	ResetForTesting()
	ResetRedisForTesting()
	t.Cleanup(func() {
		ResetForTesting()
		ResetRedisForTesting()
	})
}

func TestConnectRedisSkipsTestEnv(t *testing.T) {
	t.Setenv("APPENV", "test")
	resetRedisState(t)

	rdb, err := ConnectRedis()
	assert.NoError(t, err)
	assert.Nil(t, rdb, "the test environment must not dial Redis")
	assert.Nil(t, GetRedisClient())
}

func TestConnectRedisUnreachableAddress(t *testing.T) {
	t.Setenv("APPENV", "development")
	// Port 1 is never a Redis server; the ping fails immediately.
	t.Setenv("REDIS_ADDR", "127.0.0.1:1")
	resetRedisState(t)

	rdb, err := ConnectRedis()
	if err == nil {
		t.Fatal("expected a ping failure for an unreachable address")
	}
	assert.Nil(t, rdb)
	assert.Nil(t, GetRedisClient())
}

func TestConnectRedisSingletonUnderConcurrency(t *testing.T) {
	t.Setenv("APPENV", "test")
	resetRedisState(t)

	var wg sync.WaitGroup
	results := make([]*redis.Client, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			client, err := ConnectRedis()
			if err != nil {
				t.Errorf("ConnectRedis: %v", err)
			}
			results[i] = client
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(results); i++ {
		if results[i] != results[0] {
			t.Fatal("concurrent ConnectRedis calls must return the same client")
		}
	}
}

func TestSetRedisClientForTesting(t *testing.T) {
	resetRedisState(t)

	assert.Nil(t, GetRedisClient())

	fake := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer fake.Close()
	SetRedisClientForTesting(fake)
	assert.Same(t, fake, GetRedisClient())

	SetRedisClientForTesting(nil)
	assert.Nil(t, GetRedisClient())
}

func TestConnectRedisUsesConfigValues(t *testing.T) {
	t.Setenv("APPENV", "development")
	t.Setenv("REDIS_ADDR", "redis.internal:6380")
	t.Setenv("REDIS_PASS", "secret")
	t.Setenv("REDIS_DB", "3")
	resetRedisState(t)

	cfg := LoadConfig()
	assert.Equal(t, "redis.internal:6380", cfg.RedisAddr)
	assert.Equal(t, "secret", cfg.RedisPass)
	assert.Equal(t, 3, cfg.RedisDB)
}
