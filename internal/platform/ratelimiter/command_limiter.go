// Package ratelimiter bounds how fast commands can be fired at a single
// counterpart. A misbehaving UI or a stuck key cannot flood the channel.
package ratelimiter

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// CommandLimiter applies a token bucket per counterpart username and evicts
// idle buckets periodically.
type CommandLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu     sync.Mutex
	byUser map[string]*bucket
	hits   uint64
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New returns a per-counterpart limiter; nil (unlimited) when args are not
// positive.
func New(rps float64, burst int, idleTTL time.Duration) *CommandLimiter {
	if rps <= 0 || burst <= 0 {
		return nil
	}
	if idleTTL <= 0 {
		idleTTL = 5 * time.Minute
	}
	return &CommandLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: idleTTL,
		byUser:  make(map[string]*bucket),
	}
}

// Allow reports whether one command may go out to the counterpart now.
func (l *CommandLimiter) Allow(counterpart string, now time.Time) bool {
	if l == nil {
		return true
	}
	counterpart = strings.TrimSpace(counterpart)
	if counterpart == "" {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.byUser[counterpart]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.byUser[counterpart] = b
	}
	b.lastSeen = now
	allowed := b.limiter.AllowN(now, 1)

	l.hits++
	if l.hits%256 == 0 {
		cutoff := now.Add(-l.idleTTL)
		for user, entry := range l.byUser {
			if entry.lastSeen.Before(cutoff) {
				delete(l.byUser, user)
			}
		}
	}
	return allowed
}
