// Package runguard serializes monitoring cycles across processes with a
// Redis lock. A cycle holds a Lease for its duration; a second process
// trying to start a cycle meanwhile gets ErrHeld.
package runguard

import (
	"time"
)

// Redis key for the cycle lock.
const (
	RedisKeyCycleLock = "auction-monitor:cycle:lock"
)

// Bounds for the lock TTL.
const (
	// DefaultTTL is used when no TTL is configured. It must outlast the
	// slowest expected cycle so a live lease never expires under its holder.
	DefaultTTL = 5 * time.Minute

	// MinTTL is the smallest TTL accepted by New.
	MinTTL = time.Second
)

// Lease is a held cycle lock.
type Lease struct {
	// Key is the Redis key holding the lock.
	Key string `json:"key"`

	// Token identifies this holder; only the holder can release the lock.
	Token string `json:"token"`

	// AcquiredAt is when the lock was taken.
	AcquiredAt time.Time `json:"acquired_at"`

	// TTL is the lock lifetime set in Redis.
	TTL time.Duration `json:"ttl"`

	guard *Guard
}

// ExpiresAt returns when Redis drops the lock if it is not released.
func (l *Lease) ExpiresAt() time.Time {
	return l.AcquiredAt.Add(l.TTL)
}

// Expired reports whether the lease outlived its TTL.
func (l *Lease) Expired() bool {
	return time.Now().After(l.ExpiresAt())
}

// Remaining returns the time left before expiry, or 0 once expired.
func (l *Lease) Remaining() time.Duration {
	d := time.Until(l.ExpiresAt())
	if d < 0 {
		return 0
	}
	return d
}
