//go:build integration

package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Sternrassler/auction-monitor/internal/monitor"
	"github.com/Sternrassler/auction-monitor/internal/testutil"
	"github.com/Sternrassler/auction-monitor/pkg/auction"
	"github.com/Sternrassler/auction-monitor/pkg/client"
	"github.com/Sternrassler/auction-monitor/pkg/logging"
	"github.com/Sternrassler/auction-monitor/pkg/runguard"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

// recordingLogger collects sink messages.
type recordingLogger struct {
	mu     sync.Mutex
	logs   []string
	errors []string
}

func (l *recordingLogger) Log(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logs = append(l.logs, message)
}

func (l *recordingLogger) Error(message string, fields map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, message)
}

func newMonitor(t *testing.T, mock *testutil.MockMarketplace, logger *recordingLogger, guard *runguard.Guard, pageLimit int) *monitor.Monitor {
	t.Helper()

	apiClient, err := client.New(client.DefaultConfig(mock.BaseURL()))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	gateway, err := auction.NewGateway(apiClient, logger, auction.GatewayConfig{
		Email:     mock.Email,
		Password:  mock.Password,
		PageLimit: pageLimit,
	})
	if err != nil {
		t.Fatalf("Failed to create gateway: %v", err)
	}

	m, err := monitor.New(gateway, auction.NewAggregator(), logger,
		monitor.WithLock(monitor.GuardLock(guard)),
		monitor.WithZerolog(zerolog.Nop()),
	)
	if err != nil {
		t.Fatalf("Failed to create monitor: %v", err)
	}
	return m
}

func TestIntegration_MonitorCycleWithGuard(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockMarketplace()
	defer mock.Close()

	auctions := make([]any, 0, 7)
	for i := 1; i <= 7; i++ {
		auctions = append(auctions, testutil.NewAuction(int64(i), 1000, float64(i*100), i))
	}
	mock.SetAuctions(auctions)

	guard, err := runguard.New(redisClient, "", time.Minute, logging.NewLogger("runguard"))
	if err != nil {
		t.Fatalf("Failed to create guard: %v", err)
	}

	logger := &recordingLogger{}
	m := newMonitor(t, mock, logger, guard, 3)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	summary, err := m.RunCycle(ctx)
	if err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	if summary.NumberOfAuctions != 7 {
		t.Errorf("NumberOfAuctions = %d, want 7", summary.NumberOfAuctions)
	}
	if summary.AverageNumberOfBids != 4 {
		t.Errorf("AverageNumberOfBids = %v, want 4", summary.AverageNumberOfBids)
	}
	if summary.AveragePercentageOfAuctionProgress != 40 {
		t.Errorf("AveragePercentageOfAuctionProgress = %v, want 40", summary.AveragePercentageOfAuctionProgress)
	}

	requests := mock.GetPageRequests()
	if len(requests) != 3 {
		t.Fatalf("page requests = %d, want 3", len(requests))
	}
	for i, want := range []int{0, 3, 6} {
		if requests[i].Offset != want || requests[i].Limit != 3 {
			t.Errorf("request %d = %+v, want offset %d limit 3", i, requests[i], want)
		}
	}

	holder, err := guard.Holder(ctx)
	if err != nil {
		t.Fatalf("Holder failed: %v", err)
	}
	if holder != "" {
		t.Errorf("cycle lock still held after cycle: %q", holder)
	}
}

func TestIntegration_SecondMonitorBlockedByLock(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockMarketplace()
	defer mock.Close()
	mock.SetAuctions([]any{testutil.NewAuction(1, 100, 50, 1)})

	guard, err := runguard.New(redisClient, "", time.Minute, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to create guard: %v", err)
	}

	ctx := context.Background()
	lease, err := guard.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	logger := &recordingLogger{}
	m := newMonitor(t, mock, logger, guard, 0)

	if code := m.Run(ctx, 0); code != monitor.ExitFailure {
		t.Errorf("Run() = %d, want %d", code, monitor.ExitFailure)
	}
	if mock.GetAuthCount() != 0 {
		t.Error("marketplace contacted while another cycle held the lock")
	}
	if len(logger.errors) != 1 || logger.errors[0] != monitor.MsgFailed {
		t.Errorf("errors = %v, want one %q", logger.errors, monitor.MsgFailed)
	}

	if err := lease.Release(ctx); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	if _, err := m.RunCycle(ctx); err != nil {
		t.Fatalf("RunCycle after release failed: %v", err)
	}
}
