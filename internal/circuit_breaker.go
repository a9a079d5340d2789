package internal

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lychee-technology/pagekit"
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
	nowFunc      func() time.Time
}

// NewCircuitBreaker creates a configured circuit breaker.
func NewCircuitBreaker(threshold int, window, openDuration time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		threshold:    threshold,
		window:       window,
		openDuration: openDuration,
		failures:     make([]time.Time, 0, threshold),
		nowFunc:      time.Now,
	}
}

// RecordFailure records a failure occurrence and opens the breaker if threshold exceeded.
func (cb *CircuitBreaker) RecordFailure() {
	if cb == nil {
		return
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.nowFunc()
	cutoff := now.Add(-cb.window)
	i := 0
	for ; i < len(cb.failures); i++ {
		if cb.failures[i].After(cutoff) {
			break
		}
	}
	if i > 0 {
		cb.failures = append([]time.Time{}, cb.failures[i:]...)
	}
	cb.failures = append(cb.failures, now)

	if len(cb.failures) >= cb.threshold {
		cb.openUntil = now.Add(cb.openDuration)
	}
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
	return cb.nowFunc().Before(cb.openUntil)
}

// breakerDesignStore fails fast while the downstream store keeps failing.
// It never retries; a rejected or failed save is returned to the caller.
type breakerDesignStore struct {
	next    pagekit.DesignStore
	breaker *CircuitBreaker
}

// NewBreakerDesignStore wraps next with cb.
func NewBreakerDesignStore(next pagekit.DesignStore, cb *CircuitBreaker) pagekit.DesignStore {
	return &breakerDesignStore{next: next, breaker: cb}
}

func (s *breakerDesignStore) Save(ctx context.Context, componentID string, envelope []byte) error {
	if s.breaker.IsOpen() {
		return pagekit.NewPagekitError(pagekit.ErrorTypeStorage, pagekit.ErrCodeStorageUnavailable, "design store is temporarily unavailable").
			WithDetail("componentId", componentID)
	}
	if err := s.next.Save(ctx, componentID, envelope); err != nil {
		if !countsAgainstStore(err) {
			return err
		}
		s.breaker.RecordFailure()
		if s.breaker.IsOpen() {
			zap.S().Warnw("design store circuit opened", "componentId", componentID, "error", err)
		}
		return err
	}
	s.breaker.RecordSuccess()
	return nil
}

func (s *breakerDesignStore) Load(ctx context.Context, componentID string) ([]byte, error) {
	if s.breaker.IsOpen() {
		return nil, pagekit.NewPagekitError(pagekit.ErrorTypeStorage, pagekit.ErrCodeStorageUnavailable, "design store is temporarily unavailable").
			WithDetail("componentId", componentID)
	}
	data, err := s.next.Load(ctx, componentID)
	if err != nil && countsAgainstStore(err) {
		s.breaker.RecordFailure()
		return nil, err
	}
	if err == nil {
		s.breaker.RecordSuccess()
	}
	return data, err
}

// countsAgainstStore reports whether err says something about the store's
// health. Not-found, validation and ownership conflicts do not.
func countsAgainstStore(err error) bool {
	var pe *pagekit.PagekitError
	if !errors.As(err, &pe) {
		return true
	}
	switch pe.Type {
	case pagekit.ErrorTypeNotFound, pagekit.ErrorTypeValidation, pagekit.ErrorTypeConflict:
		return false
	}
	return true
}
