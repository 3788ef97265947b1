// Package ratelimit throttles mutating requests per client address.
package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Limiter gives every client a token bucket that refills at
// RequestsPerMinute and holds at most that many tokens.
type Limiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	perMin   int
	stale    time.Duration
	now      func() time.Time

	rejected atomic.Int64
	stop     chan struct{}
	stopOnce sync.Once
}

type visitor struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
	// StaleAfter forgets clients idle for longer than this.
	StaleAfter time.Duration
}

func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		CleanupInterval:   5 * time.Minute,
		StaleAfter:        10 * time.Minute,
	}
}

// NewLimiter starts a goroutine that forgets idle clients every
// CleanupInterval. Stop releases it.
func NewLimiter(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = def.RequestsPerMinute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = def.StaleAfter
	}

	l := &Limiter{
		visitors: make(map[string]*visitor),
		perMin:   cfg.RequestsPerMinute,
		stale:    cfg.StaleAfter,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go l.sweepEvery(cfg.CleanupInterval)
	return l
}

// Allow takes a token from client's bucket.
func (l *Limiter) Allow(client string) bool {
	now := l.now()

	l.mu.Lock()
	v, ok := l.visitors[client]
	if !ok {
		every := time.Minute / time.Duration(l.perMin)
		v = &visitor{bucket: rate.NewLimiter(rate.Every(every), l.perMin)}
		l.visitors[client] = v
	}
	v.lastSeen = now
	allowed := v.bucket.AllowN(now, 1)
	l.mu.Unlock()

	if !allowed {
		l.rejected.Add(1)
	}
	return allowed
}

// retryAfter is the whole number of seconds, at least one, until client
// has a token again.
func (l *Limiter) retryAfter(client string) int {
	l.mu.Lock()
	v, ok := l.visitors[client]
	l.mu.Unlock()
	if !ok {
		return 1
	}
	missing := 1 - v.bucket.TokensAt(l.now())
	secs := int(math.Ceil(missing/float64(v.bucket.Limit()) - 1e-9))
	if secs < 1 {
		secs = 1
	}
	return secs
}

func (l *Limiter) sweepEvery(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stop:
			return
		}
	}
}

// sweep forgets clients idle for longer than StaleAfter and returns how
// many were dropped.
func (l *Limiter) sweep() int {
	cutoff := l.now().Add(-l.stale)

	l.mu.Lock()
	defer l.mu.Unlock()
	dropped := 0
	for client, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, client)
			dropped++
		}
	}
	return dropped
}

func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// Stop ends the sweeper. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

type Metrics struct {
	Rejected    int64 `json:"rejected"`
	ClientCount int   `json:"client_count"`
}

func (l *Limiter) GetMetrics() Metrics {
	return Metrics{Rejected: l.rejected.Load(), ClientCount: l.ActiveClients()}
}

// Middleware throttles POST, PUT, PATCH and DELETE. Reads always pass. With
// a nil onLimit the response is 429 with a Retry-After header.
func (l *Limiter) Middleware(extractIP func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !mutating(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			client := extractIP(r)
			if l.Allow(client) {
				next.ServeHTTP(w, r)
				return
			}
			if onLimit != nil {
				onLimit(w, r)
				return
			}
			w.Header().Set("Retry-After", strconv.Itoa(l.retryAfter(client)))
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
		})
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
