package web

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// ipLimiterMaxEntries bounds the number of tracked clients, new clients
	// are refused once it is reached and nothing idle can be pruned.
	ipLimiterMaxEntries = 10000
	ipLimiterMaxIdle    = 10 * time.Minute
	ipLimiterPruneEvery = 1 * time.Minute
)

type ipLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter is a token bucket per client IP.
type ipRateLimiter struct {
	mu         sync.Mutex
	ips        map[string]*ipLimiterEntry
	r          rate.Limit
	b          int
	maxEntries int
	lastPrune  time.Time
}

func newIPRateLimiter(r rate.Limit, b int) *ipRateLimiter {
	return &ipRateLimiter{
		ips:        make(map[string]*ipLimiterEntry),
		r:          r,
		b:          b,
		maxEntries: ipLimiterMaxEntries,
		lastPrune:  time.Now(),
	}
}

func (l *ipRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastPrune) > ipLimiterPruneEvery {
		l.prune(now)
	}

	e, ok := l.ips[ip]
	if !ok {
		if len(l.ips) >= l.maxEntries {
			l.prune(now)
			if len(l.ips) >= l.maxEntries {
				return false
			}
		}

		e = &ipLimiterEntry{limiter: rate.NewLimiter(l.r, l.b)}
		l.ips[ip] = e
	}
	e.lastSeen = now

	return e.limiter.AllowN(now, 1)
}

func (l *ipRateLimiter) prune(now time.Time) {
	l.lastPrune = now
	cutoff := now.Add(-ipLimiterMaxIdle)
	for k, v := range l.ips {
		if v.lastSeen.Before(cutoff) {
			delete(l.ips, k)
		}
	}
}

func (l *ipRateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.ips)
}
