// File: utils/cache.go
package utils

import (
	"bookdesk/config"
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

var (
	// QuotaClient backs the per-channel daily AI draft counters.
	QuotaClient *redis.Client
)

// InitQuotaCache initializes the Redis client used for AI quota counters.
func InitQuotaCache() {
	QuotaClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQuotaDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := QuotaClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Quota): %v", err)
	}
}

// GetQuotaClient returns the Redis client for quota counters.
func GetQuotaClient() *redis.Client {
	if QuotaClient == nil {
		InitQuotaCache()
	}
	return QuotaClient
}
