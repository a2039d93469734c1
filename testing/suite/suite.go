// Package suite starts a disposable Redis server for tests that publish
// board events.
package suite

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
)

const (
	containerTTL = 120
	startTimeout = 120 * time.Second

	redisPort  = "6379/tcp"
	redisImage = "redis"
	redisTag   = "alpine"
)

type Suite struct {
	*testing.T
	Logger *slog.Logger

	Addr    string
	Storage *redis.Client
}

// New - starts a Redis container for t and removes it on cleanup. The test is
// skipped when no docker daemon answers.
func New(t *testing.T) (context.Context, *Suite) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	t.Cleanup(cancel)

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("could not connect to docker: %v", err)
	}

	if err = pool.Client.Ping(); err != nil {
		t.Skipf("docker is not available: %v", err)
	}

	resource, err := startRedis(pool)
	if err != nil {
		t.Fatalf("could not start redis: %v", err)
	}

	addr := resource.GetHostPort(redisPort)

	client, err := connect(ctx, pool, addr)
	if err != nil {
		_ = pool.Purge(resource)
		t.Fatalf("could not connect to redis at %s: %v", addr, err)
	}

	t.Cleanup(func() {
		_ = client.Close()

		if purgeErr := pool.Purge(resource); purgeErr != nil {
			t.Errorf("could not purge redis container: %v", purgeErr)
		}
	})

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).
		With("test", t.Name())

	return ctx, &Suite{
		T:       t,
		Logger:  logger,
		Addr:    addr,
		Storage: client,
	}
}

// Subscribe - returns a subscription on channel that is confirmed by the
// server, so nothing published afterwards is missed.
func (that *Suite) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	that.Helper()

	pubsub := that.Storage.Subscribe(ctx, channel)
	that.Cleanup(func() { _ = pubsub.Close() })

	if _, err := pubsub.Receive(ctx); err != nil {
		that.Fatalf("could not subscribe to %s: %v", channel, err)
	}

	return pubsub
}

func startRedis(pool *dockertest.Pool) (*dockertest.Resource, error) {
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: redisImage,
		Tag:        redisTag,
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, fmt.Errorf("could not run container: %w", err)
	}

	// hard stop if cleanup never runs
	_ = resource.Expire(containerTTL)

	return resource, nil
}

// connect waits until the server in the container accepts connections.
func connect(ctx context.Context, pool *dockertest.Pool, addr string) (*redis.Client, error) {
	pool.MaxWait = startTimeout

	var client *redis.Client

	err := pool.Retry(func() error {
		if client != nil {
			_ = client.Close()
		}

		client = redis.NewClient(&redis.Options{Addr: addr})

		return client.Ping(ctx).Err()
	})
	if err != nil {
		return nil, err
	}

	return client, nil
}
