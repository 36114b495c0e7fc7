// Package circuitbreaker protects the environmental providers from being
// hammered while they are down. The public SoilGrids and Open-Elevation
// endpoints throttle aggressively; once a provider fails repeatedly the
// breaker opens and estimations run on cached data or defaults until a
// probe succeeds.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned when the breaker rejects a call without trying it.
var ErrOpen = errors.New("circuit breaker open")

// State is the breaker state.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Config holds breaker parameters. Zero values fall back to defaults.
type Config struct {
	FailureThreshold int           // consecutive failures before opening
	SuccessThreshold int           // half-open successes before closing
	Timeout          time.Duration // open duration before probing
	OnStateChange    func(from, to State)
}

// Breaker opens after repeated failures and lets probe calls through in
// half-open state.
type Breaker struct {
	mu            sync.Mutex
	state         State
	failures      int
	successes     int
	lastFailure   time.Time
	cfg           Config
	onStateChange func(from, to State)
}

// New creates a Breaker.
func New(cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Breaker{state: StateClosed, cfg: cfg, onStateChange: cfg.OnStateChange}
}

// Allow reports whether a call may proceed, transitioning open to half-open
// once the timeout has elapsed. Callers must report the outcome through
// RecordSuccess or RecordFailure.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateOpen {
		return true
	}
	if time.Since(b.lastFailure) < b.cfg.Timeout {
		return false
	}
	b.transition(StateHalfOpen)
	b.successes = 0
	return true
}

// RecordSuccess notes a successful call, closing the breaker after enough
// half-open probes succeed.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.successes++
	if b.state == StateHalfOpen && b.successes >= b.cfg.SuccessThreshold {
		b.transition(StateClosed)
		b.successes = 0
	}
}

// RecordFailure notes a failed call. A half-open failure reopens
// immediately; closed failures open once the threshold is reached.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = time.Now()
	if b.state == StateHalfOpen || b.failures >= b.cfg.FailureThreshold {
		b.transition(StateOpen)
		b.failures = 0
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// transition must be called with the mutex held.
func (b *Breaker) transition(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	if b.onStateChange != nil {
		// Callback runs under the lock; keep it cheap (metrics only).
		b.onStateChange(from, to)
	}
}
