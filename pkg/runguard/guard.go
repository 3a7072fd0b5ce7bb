package runguard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for cycle lock handling.
var (
	guardAcquisitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auction_monitor_cycle_lock_acquisitions_total",
		Help: "Cycle lock acquisition attempts by result",
	}, []string{"result"})

	guardHeld = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "auction_monitor_cycle_lock_held",
		Help: "1 while this process holds the cycle lock",
	})
)

// ErrHeld is returned by Acquire when another holder owns the lock.
var ErrHeld = errors.New("cycle lock is held by another process")

// ErrNotHeld is returned by Release when the lock expired or was taken over.
var ErrNotHeld = errors.New("cycle lock no longer held by this lease")

// releaseScript deletes the key only if it still carries the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Guard hands out the cycle lock.
type Guard struct {
	redis  *redis.Client
	key    string
	ttl    time.Duration
	logger zerolog.Logger
}

// New creates a guard. An empty key selects RedisKeyCycleLock and a zero
// TTL selects DefaultTTL.
func New(redisClient *redis.Client, key string, ttl time.Duration, logger zerolog.Logger) (*Guard, error) {
	if redisClient == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if key == "" {
		key = RedisKeyCycleLock
	}
	if ttl == 0 {
		ttl = DefaultTTL
	}
	if ttl < MinTTL {
		return nil, fmt.Errorf("lock ttl must be >= %s (got %s)", MinTTL, ttl)
	}

	return &Guard{
		redis:  redisClient,
		key:    key,
		ttl:    ttl,
		logger: logger,
	}, nil
}

// Acquire takes the lock or returns ErrHeld.
func (g *Guard) Acquire(ctx context.Context) (*Lease, error) {
	lease := &Lease{
		Key:        g.key,
		Token:      uuid.NewString(),
		AcquiredAt: time.Now(),
		TTL:        g.ttl,
		guard:      g,
	}

	ok, err := g.redis.SetNX(ctx, g.key, lease.Token, g.ttl).Result()
	if err != nil {
		guardAcquisitionsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("acquire cycle lock: %w", err)
	}
	if !ok {
		guardAcquisitionsTotal.WithLabelValues("held").Inc()
		g.logger.Warn().Str("key", g.key).Msg("Cycle lock held elsewhere")
		return nil, ErrHeld
	}

	guardAcquisitionsTotal.WithLabelValues("acquired").Inc()
	guardHeld.Set(1)
	g.logger.Debug().
		Str("key", g.key).
		Dur("ttl", g.ttl).
		Msg("Cycle lock acquired")

	return lease, nil
}

// Release frees the lock if this lease still owns it.
func (l *Lease) Release(ctx context.Context) error {
	g := l.guard
	if g == nil {
		return ErrNotHeld
	}

	deleted, err := releaseScript.Run(ctx, g.redis, []string{l.Key}, l.Token).Int()
	if err != nil {
		return fmt.Errorf("release cycle lock: %w", err)
	}
	// Cleared in both cases: an expired or taken-over lease is not held
	// by this process either.
	guardHeld.Set(0)

	if deleted == 0 {
		g.logger.Warn().
			Str("key", l.Key).
			Dur("ttl", l.TTL).
			Msg("Cycle lock expired before release")
		return ErrNotHeld
	}

	g.logger.Debug().Str("key", l.Key).Msg("Cycle lock released")
	return nil
}

// Holder returns the token currently stored under the lock key, or "" when
// the lock is free.
func (g *Guard) Holder(ctx context.Context) (string, error) {
	token, err := g.redis.Get(ctx, g.key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get cycle lock: %w", err)
	}
	return token, nil
}
