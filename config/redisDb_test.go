package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestConnectRedisWithRetryClosesFailedClients(t *testing.T) {
	t.Setenv("REDIS_ADDRESS", "127.0.0.1:1")

	var clients []*redis.Client
	newRedisClient = func(opt *redis.Options) *redis.Client {
		client := redis.NewClient(opt)
		clients = append(clients, client)
		return client
	}
	defer func() { newRedisClient = redis.NewClient }()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if ConnectRedisWithRetry(ctx) {
		t.Fatalf("expected connect to fail against a closed port")
	}
	if GetRedisDB() != nil {
		t.Fatalf("failed connect left a global client")
	}
	if len(clients) == 0 {
		t.Fatalf("no client was dialed")
	}
	for i, client := range clients {
		if err := client.Ping(context.Background()).Err(); !errors.Is(err, redis.ErrClosed) {
			t.Fatalf("client %d not closed after failed ping: %v", i, err)
		}
	}
}

func TestConnectRedisWithRetryDisabled(t *testing.T) {
	t.Setenv("REDIS_ADDRESS", "")
	if ConnectRedisWithRetry(context.Background()) {
		t.Fatalf("expected redis to be disabled without an address")
	}
}
