package errors

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned while the breaker is refusing calls.
var ErrCircuitOpen = New(ErrCodeCircuitOpen, "recipe index circuit breaker is open", nil).
	WithSuggestion("The recipe service failed repeatedly; wait a moment and try again")

// State is the breaker position.
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
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker stops calling the recipe index after consecutive upstream
// failures and lets a single trial call through once the cooldown elapses.
//
// Only errors accepted by the failure filter count toward tripping. A call
// whose own context ended, or that failed for a reason the upstream is not
// responsible for, leaves the breaker untouched.
type Breaker struct {
	threshold int
	cooldown  time.Duration
	counts    func(error) bool
	now       func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	trial    bool
}

// BreakerOption configures a Breaker.
type BreakerOption func(*Breaker)

// WithThreshold sets how many consecutive upstream failures open the breaker.
func WithThreshold(n int) BreakerOption {
	return func(b *Breaker) {
		if n > 0 {
			b.threshold = n
		}
	}
}

// WithCooldown sets how long the breaker stays open before a trial call.
func WithCooldown(d time.Duration) BreakerOption {
	return func(b *Breaker) {
		if d > 0 {
			b.cooldown = d
		}
	}
}

// WithFailureFilter replaces the predicate deciding which errors are
// upstream failures. The default is IsRetryable.
func WithFailureFilter(fn func(error) bool) BreakerOption {
	return func(b *Breaker) {
		if fn != nil {
			b.counts = fn
		}
	}
}

// NewBreaker returns a closed breaker: 5 failures, 30 second cooldown.
func NewBreaker(opts ...BreakerOption) *Breaker {
	b := &Breaker{
		threshold: 5,
		cooldown:  30 * time.Second,
		counts:    IsRetryable,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// State reports the position, showing half-open once the cooldown is over.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.position()
}

func (b *Breaker) position() State {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cooldown {
		return StateHalfOpen
	}
	return b.state
}

// admit reserves a call slot. In half-open only one trial runs at a time.
func (b *Breaker) admit() (trial bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.position() {
	case StateClosed:
		return false, nil
	case StateHalfOpen:
		if b.trial {
			return false, ErrCircuitOpen
		}
		b.trial = true
		return true, nil
	default:
		return false, ErrCircuitOpen
	}
}

func (b *Breaker) settle(ctx context.Context, trial bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if trial {
		b.trial = false
	}

	switch {
	case err == nil:
		b.state = StateClosed
		b.failures = 0
	case !b.upstreamFault(ctx, err):
		// neither success nor failure
	case trial:
		b.state = StateOpen
		b.openedAt = b.now()
	default:
		b.failures++
		if b.failures >= b.threshold {
			b.state = StateOpen
			b.openedAt = b.now()
		}
	}
}

func (b *Breaker) upstreamFault(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return false
	}
	return b.counts(err)
}

// Guard runs fn unless the breaker is open and records its outcome.
func Guard[T any](ctx context.Context, b *Breaker, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	trial, err := b.admit()
	if err != nil {
		return zero, err
	}
	result, err := fn(ctx)
	b.settle(ctx, trial, err)
	if err != nil {
		return zero, err
	}
	return result, nil
}
