package config

import (
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// ConnectRedis establishes connection to Redis. It returns nil when Redis is
// unreachable; the caller decides whether to fall back to the in-memory queue.
func ConnectRedis(settings Settings) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:         settings.RedisAddr,
		Password:     settings.RedisPassword,
		DB:           settings.RedisDB,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.Ping(ctx).Result()
	if err != nil {
		log.Printf("Warning: Redis connection failed: %v", err)
		client.Close()
		return nil
	}

	log.Println("Connected to Redis")
	return client
}
