//go:build integration

package runguard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container and returns a client
func setupRedis(t *testing.T) (*redis.Client, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: endpoint,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func TestIntegration_ConcurrentAcquire(t *testing.T) {
	client, cleanup := setupRedis(t)
	defer cleanup()

	g, err := New(client, "", time.Minute, zerolog.Nop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	const contenders = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		acquired []*Lease
		held     int
	)

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lease, err := g.Acquire(context.Background())

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				acquired = append(acquired, lease)
			case errors.Is(err, ErrHeld):
				held++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if len(acquired) != 1 {
		t.Fatalf("acquired = %d, want exactly 1", len(acquired))
	}
	if held != contenders-1 {
		t.Errorf("held = %d, want %d", held, contenders-1)
	}

	if err := acquired[0].Release(context.Background()); err != nil {
		t.Errorf("Release failed: %v", err)
	}
}

func TestIntegration_LockExpires(t *testing.T) {
	client, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	g, err := New(client, "", MinTTL, zerolog.Nop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	first, err := g.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	time.Sleep(MinTTL + 500*time.Millisecond)

	second, err := g.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire after expiry failed: %v", err)
	}

	if err := first.Release(ctx); !errors.Is(err, ErrNotHeld) {
		t.Errorf("stale Release = %v, want ErrNotHeld", err)
	}
	if err := second.Release(ctx); err != nil {
		t.Errorf("Release failed: %v", err)
	}
}
