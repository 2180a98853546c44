package config

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

var (
	rdb    *redis.Client
	locker *redislock.Client

	newRedisClient = redis.NewClient
)

// GetRedisDB returns nil when redis is not configured.
func GetRedisDB() *redis.Client {
	return rdb
}

func GetRedisLock() *redislock.Client {
	return locker
}

// CacheLifespan is CACHE_LIFESPAN in seconds, default one hour.
func CacheLifespan() time.Duration {
	return time.Duration(IntFromEnv("CACHE_LIFESPAN", 3600)) * time.Second
}

// ReplicationLockTTL bounds how long a budget replication may hold its lock.
func ReplicationLockTTL() time.Duration {
	return time.Duration(IntFromEnv("REPLICATION_LOCK_TTL_SECONDS", 120)) * time.Second
}

// ConnectRedisWithRetry connects and sets the global Redis client + lock client.
// An empty REDIS_ADDRESS disables redis and returns false; callers then fall
// back to in-process locks and an uncached catalog.
func ConnectRedisWithRetry(ctx context.Context) bool {
	redisAddr := strings.TrimSpace(os.Getenv("REDIS_ADDRESS"))
	if redisAddr == "" {
		log.Printf("REDIS_ADDRESS not set; running without redis")
		return false
	}

	var attempt int
	for {
		attempt++
		client := newRedisClient(&redis.Options{
			Addr:     redisAddr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
			PoolSize: 100,
		})
		err := client.Ping(ctx).Err()
		if err == nil {
			rdb = client
			locker = redislock.New(rdb)
			log.Printf("connected to redis (attempt=%d addr=%s)", attempt, redisAddr)
			return true
		}

		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		log.Printf("failed to connect redis (attempt=%d addr=%s): %v; retrying in %s", attempt, redisAddr, err, sleep)
		_ = client.Close()
		select {
		case <-ctx.Done():
			return false
		case <-time.After(sleep):
		}
	}
}
