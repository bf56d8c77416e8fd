package config

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	redisClient *redis.Client
	redisOnce   sync.Once
)

// ConnectRedis initializes the singleton Redis client from the loaded Config.
// Under APPENV=test no connection is attempted and the client stays nil, so
// session lookups fall back to the database. A failed ping also leaves the
// client nil and reports the error.
func ConnectRedis() (*redis.Client, error) {
	var err error
	redisOnce.Do(func() {
		cfg := LoadConfig()
		if cfg.AppEnv == "test" {
			return
		}

		addr := cfg.RedisAddr
		if addr == "" {
			addr = "localhost:6379"
		}

		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err = rdb.Ping(ctx).Err(); err != nil {
			redisClient = nil
			err = fmt.Errorf("redis ping failed: %w", err)
			return
		}

		redisClient = rdb
		log.Printf("Connected to Redis at %s", addr)
	})
	return redisClient, err
}

// GetRedisClient returns the initialized Redis client. It is nil when
// ConnectRedis was never called, failed, or was skipped in the test env.
func GetRedisClient() *redis.Client {
	return redisClient
}

// SetRedisClientForTesting allows tests to inject a mock Redis client.
// This should only be used in tests.
func SetRedisClientForTesting(client *redis.Client) {
	redisClient = client
}

// ResetRedisForTesting clears the singleton so the next ConnectRedis call
// dials again. This should only be used in tests.
func ResetRedisForTesting() {
	redisClient = nil
	redisOnce = sync.Once{}
}
