package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/sony/gobreaker/v2"
)

// ErrorClassifier reports whether an error should count against the
// operation's breaker.
type ErrorClassifier func(err error) (recordFailure bool)

// StateListener is told about every breaker transition, e.g. to export
// it as a gauge. state is one of "closed", "half-open", "open".
type StateListener func(operation, state string)

type Option func(*Executor)

func WithStateListener(fn StateListener) Option {
	return func(e *Executor) {
		e.listener = fn
	}
}

// Executor guards upstream calls (nearby search, geocoding, chat models)
// with one breaker per operation name.
type Executor struct {
	policy   Policy
	listener StateListener

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[struct{}]
}

func NewExecutor(policy Policy, opts ...Option) *Executor {
	e := &Executor{
		policy:   policy.withDefaults(),
		breakers: map[string]*gobreaker.CircuitBreaker[struct{}]{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs fn exactly once. A nil Executor, or one with breakers
// disabled, just calls fn.
func (e *Executor) Execute(ctx context.Context, operation string, fn func(context.Context) error, classifier ErrorClassifier) error {
	if fn == nil {
		return fmt.Errorf("resilience: nil call for %q", operation)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if e == nil || !e.policy.Enabled {
		return fn(ctx)
	}
	if classifier == nil {
		classifier = countUnlessCanceled
	}

	_, err := e.breaker(operation, classifier).Execute(func() (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// State reports the breaker state for operation, "closed" when none exists yet.
func (e *Executor) State(operation string) string {
	if e == nil {
		return gobreaker.StateClosed.String()
	}
	e.mu.Lock()
	cb, ok := e.breakers[operationKey(operation)]
	e.mu.Unlock()
	if !ok {
		return gobreaker.StateClosed.String()
	}
	return cb.State().String()
}

func (e *Executor) breaker(operation string, classifier ErrorClassifier) *gobreaker.CircuitBreaker[struct{}] {
	key := operationKey(operation)

	e.mu.Lock()
	defer e.mu.Unlock()
	if cb, ok := e.breakers[key]; ok {
		return cb
	}

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        key,
		MaxRequests: e.policy.HalfOpenCalls,
		Timeout:     e.policy.OpenTimeout,
		ReadyToTrip: e.policy.shouldTrip,
		IsSuccessful: func(err error) bool {
			return err == nil || !classifier(err)
		},
		OnStateChange: e.stateChanged,
	})
	e.breakers[key] = cb
	return cb
}

func (e *Executor) stateChanged(name string, from, to gobreaker.State) {
	slog.Warn("upstream_breaker_state_change", "operation", name, "from", from.String(), "to", to.String())
	if e.listener != nil {
		e.listener(name, to.String())
	}
}

func operationKey(operation string) string {
	if op := strings.TrimSpace(operation); op != "" {
		return op
	}
	return "unknown"
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func countUnlessCanceled(err error) bool {
	return !errors.Is(err, context.Canceled)
}
