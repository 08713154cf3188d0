package ratelimit

import (
	"sync"
	"time"

	xhttp "StockSignal/pkg/http"

	"github.com/labstack/echo/v4"
)

type bucket struct {
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	last       time.Time
}

const pruneEvery = time.Minute

// Limiter keeps one token bucket per key (client IP for the API).
type Limiter struct {
	mu        sync.Mutex
	m         map[string]*bucket
	now       func() time.Time
	lastPrune time.Time
}

func New() *Limiter { return &Limiter{m: make(map[string]*bucket), now: time.Now} }

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string, capacity, refillPerSec float64) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.m[key]
	if !ok {
		b = &bucket{tokens: capacity, capacity: capacity, refillRate: refillPerSec, last: now}
		l.m[key] = b
	}
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens += elapsed * b.refillRate
		if b.tokens > b.capacity {
			b.tokens = b.capacity
		}
		b.last = now
	}
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Prune drops buckets idle for longer than idle; full buckets carry no state worth keeping.
func (l *Limiter) Prune(idle time.Duration) int {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pruneLocked(now, idle)
}

// maybePrune runs Prune at most once per pruneEvery.
func (l *Limiter) maybePrune(idle time.Duration) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Sub(l.lastPrune) < pruneEvery {
		return
	}
	l.lastPrune = now
	l.pruneLocked(now, idle)
}

func (l *Limiter) pruneLocked(now time.Time, idle time.Duration) int {
	cutoff := now.Add(-idle)
	n := 0
	for k, b := range l.m {
		if b.last.Before(cutoff) {
			delete(l.m, k)
			n++
		}
	}
	return n
}

// refillIdle is how long a bucket takes to refill completely, floored at pruneEvery.
// After that it is indistinguishable from a new one.
func refillIdle(capacity, refillPerSec float64) time.Duration {
	idle := pruneEvery
	if refillPerSec > 0 {
		if d := time.Duration(capacity / refillPerSec * float64(time.Second)); d > idle {
			idle = d
		}
	}
	return idle
}

// Middleware rejects requests with 429 once the client's bucket is empty.
// Buckets of clients that went quiet are dropped as requests come in.
func (l *Limiter) Middleware(capacity, refillPerSec float64) echo.MiddlewareFunc {
	idle := refillIdle(capacity, refillPerSec)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			l.maybePrune(idle)
			if !l.Allow(c.RealIP(), capacity, refillPerSec) {
				return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limit exceeded"))
			}
			return next(c)
		}
	}
}
