package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/auction-monitor/internal/config"
	"github.com/Sternrassler/auction-monitor/internal/monitor"
	"github.com/Sternrassler/auction-monitor/pkg/auction"
	"github.com/Sternrassler/auction-monitor/pkg/client"
	"github.com/Sternrassler/auction-monitor/pkg/logging"
	"github.com/Sternrassler/auction-monitor/pkg/metrics"
	"github.com/Sternrassler/auction-monitor/pkg/runguard"
)

const exitUsage = 2

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

// run wires the monitor from flags, .env, config file and environment and
// returns the process exit code.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("auction-monitor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to YAML config file")
	interval := fs.Duration("interval", 0, "run a cycle every interval until stopped (0 = run once)")
	metricsAddr := fs.String("metrics-addr", "", "listen address for /metrics and /health (empty = disabled)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return monitor.ExitOK
		}
		return exitUsage
	}

	logger := logging.Setup(logging.Config{
		Level:   logging.LevelInfo,
		Output:  stderr,
		Service: "auction-monitor",
	})

	if err := config.LoadDotEnv(); err != nil {
		logger.Error().Err(err).Msg("Failed to load .env")
		return monitor.ExitFailure
	}

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return monitor.ExitFailure
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "interval":
			cfg.Monitor.Interval = *interval
		case "metrics-addr":
			cfg.Monitor.MetricsAddr = *metricsAddr
		}
	})

	logger = logging.Setup(logging.Config{
		Level:   logging.LogLevel(cfg.Log.Level),
		Pretty:  cfg.Log.Pretty,
		Output:  stderr,
		Service: "auction-monitor",
	})
	log := logger.With().Str("component", "main").Logger()

	apiClient, err := client.New(client.Config{
		BaseURL:   cfg.API.BaseURL,
		UserAgent: cfg.API.UserAgent,
		Timeout:   cfg.API.Timeout,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create marketplace client")
		return monitor.ExitFailure
	}

	gateway, err := auction.NewGateway(apiClient, logging.NewComponentSink("gateway"), auction.GatewayConfig{
		Email:     cfg.API.Email,
		Password:  cfg.API.Password,
		PageLimit: cfg.API.PageLimit,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create auction gateway")
		return monitor.ExitFailure
	}

	var opts []monitor.Option
	var redisClient *redis.Client
	if cfg.RedisEnabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Error().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to Redis")
			return monitor.ExitFailure
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")

		guard, err := runguard.New(redisClient, cfg.Redis.LockKey, cfg.Redis.LockTTL, logging.NewLogger("runguard"))
		if err != nil {
			log.Error().Err(err).Msg("Failed to create cycle lock")
			return monitor.ExitFailure
		}
		opts = append(opts, monitor.WithLock(monitor.GuardLock(guard)))
	}

	mon, err := monitor.New(gateway, auction.NewAggregator(), logging.NewComponentSink("monitor"), opts...)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create monitor")
		return monitor.ExitFailure
	}

	if cfg.Monitor.MetricsAddr != "" {
		server := &http.Server{
			Addr:              cfg.Monitor.MetricsAddr,
			Handler:           newMux(redisClient),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go serve(server, log)
		defer shutdown(server, log)
	}

	return mon.Run(ctx, cfg.Monitor.Interval)
}

func newMux(redisClient *redis.Client) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", readyHandler(redisClient))
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

func serve(server *http.Server, log zerolog.Logger) {
	log.Info().Str("addr", server.Addr).Msg("Starting metrics server")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}

func shutdown(server *http.Server, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("Metrics server shutdown failed")
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// readyHandler reports ready when the optional Redis dependency responds.
func readyHandler(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if err := redisClient.Ping(ctx).Err(); err != nil {
				http.Error(w, "Redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	}
}
