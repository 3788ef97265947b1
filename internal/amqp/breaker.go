package amqp

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Circuit breaker states.
const (
	StateClosed = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures = 5
	openTimeout = 30 * time.Second
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// breaker stops publishing after maxFailures consecutive failures and lets a
// single trial through once openTimeout has passed. The zero value is closed.
type breaker struct {
	mu       sync.Mutex
	state    int
	failures int
	openedAt time.Time
	now      func() time.Time
}

func (b *breaker) clock() time.Time {
	if b.now != nil {
		return b.now()
	}
	return time.Now()
}

// allow returns ErrCircuitOpen while the breaker is open.
func (b *breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateOpen {
		return nil
	}
	if b.clock().Sub(b.openedAt) > openTimeout {
		b.state = StateHalfOpen
		return nil
	}
	return ErrCircuitOpen
}

func (b *breaker) success() {
	b.mu.Lock()
	b.failures = 0
	b.state = StateClosed
	b.mu.Unlock()
}

func (b *breaker) failure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	if b.failures < maxFailures && b.state != StateHalfOpen {
		return
	}
	if b.state != StateOpen {
		slog.Warn("AMQP circuit breaker opened", "failures", b.failures)
	}
	b.state = StateOpen
	b.openedAt = b.clock()
}

func (b *breaker) current() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
