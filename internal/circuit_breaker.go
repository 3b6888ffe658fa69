package internal

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lychee-technology/formlogic"
	"go.uber.org/zap"
)

// CircuitBreaker is a lightweight in-memory circuit breaker.
type CircuitBreaker struct {
	mu           sync.Mutex
	failures     []time.Time
	threshold    int
	window       time.Duration
	openUntil    time.Time
	openDuration time.Duration
	now          func() time.Time
}

// NewCircuitBreaker creates a breaker that opens for openDuration once
// threshold failures fall inside window.
func NewCircuitBreaker(threshold int, window, openDuration time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		threshold:    threshold,
		window:       window,
		openDuration: openDuration,
		failures:     make([]time.Time, 0, threshold),
		now:          time.Now,
	}
}

// RecordFailure records a failure and reports whether it opened the breaker.
func (cb *CircuitBreaker) RecordFailure() bool {
	if cb == nil {
		return false
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.now()
	cutoff := now.Add(-cb.window)
	i := 0
	for ; i < len(cb.failures); i++ {
		if cb.failures[i].After(cutoff) {
			break
		}
	}
	cb.failures = append(cb.failures[:0], cb.failures[i:]...)
	cb.failures = append(cb.failures, now)

	if len(cb.failures) >= cb.threshold {
		cb.openUntil = now.Add(cb.openDuration)
		cb.failures = cb.failures[:0]
		return true
	}
	return false
}

// RecordSuccess resets failure history when operations succeed.
func (cb *CircuitBreaker) RecordSuccess() {
	if cb == nil {
		return
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = cb.failures[:0]
	cb.openUntil = time.Time{}
}

// IsOpen returns true if the breaker is currently open.
func (cb *CircuitBreaker) IsOpen() bool {
	if cb == nil {
		return false
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.now().Before(cb.openUntil)
}

// breakerFormRegistry fails fast while the backing store keeps erroring.
// Not-found and definition errors are answers from a healthy store and do
// not count as failures.
type breakerFormRegistry struct {
	inner   formlogic.FormRegistry
	breaker *CircuitBreaker
	source  string
}

// NewBreakerFormRegistry guards inner with a circuit breaker. A nil
// breaker returns inner unchanged.
func NewBreakerFormRegistry(inner formlogic.FormRegistry, breaker *CircuitBreaker, source string) formlogic.FormRegistry {
	if breaker == nil {
		return inner
	}
	return &breakerFormRegistry{inner: inner, breaker: breaker, source: source}
}

func (r *breakerFormRegistry) GetForm(ctx context.Context, formID string) (*formlogic.Form, error) {
	if r.breaker.IsOpen() {
		return nil, r.unavailable().WithForm(formID)
	}
	form, err := r.inner.GetForm(ctx, formID)
	r.record(err)
	return form, err
}

func (r *breakerFormRegistry) ListForms(ctx context.Context) ([]string, error) {
	if r.breaker.IsOpen() {
		return nil, r.unavailable()
	}
	ids, err := r.inner.ListForms(ctx)
	r.record(err)
	return ids, err
}

func (r *breakerFormRegistry) record(err error) {
	if err == nil {
		r.breaker.RecordSuccess()
		return
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	if engineErr, ok := formlogic.GetEngineError(err); ok {
		switch engineErr.Type {
		case formlogic.ErrorTypeNotFound, formlogic.ErrorTypeInvalidDefinition:
			return
		}
	}
	if r.breaker.RecordFailure() {
		zap.S().Warnw("form registry circuit opened", "source", r.source, "error", err)
	}
}

func (r *breakerFormRegistry) unavailable() *formlogic.EngineError {
	return formlogic.NewEngineError(formlogic.ErrorTypeUnavailable, formlogic.ErrCodeRegistryOpen, "form registry temporarily unavailable").
		WithDetail("source", r.source)
}
