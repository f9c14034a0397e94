// Package cache holds the per-date schedule cache. It is an explicit object
// with an injected clock rather than package-level state: the composing app
// constructs one store at startup and hands it to consumers.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/footylog/matchlog/internal/platform/resilience"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// Store maps string keys (query dates) to cached values with an optional
// TTL. A zero TTL makes entries session-scoped: they live until invalidated.
type Store[T any] struct {
	mu      sync.RWMutex
	entries map[string]entry[T]
	ttl     time.Duration
	now     func() time.Time
	flight  resilience.SingleFlight
}

func NewStore[T any](ttl time.Duration, now func() time.Time) *Store[T] {
	if now == nil {
		now = time.Now
	}
	return &Store[T]{
		entries: make(map[string]entry[T]),
		ttl:     ttl,
		now:     now,
	}
}

func (s *Store[T]) Get(_ context.Context, key string) (T, bool) {
	var zero T
	if key == "" {
		return zero, false
	}

	now := s.now()
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if s.ttl > 0 && !e.expiresAt.After(now) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return zero, false
	}

	return e.value, true
}

func (s *Store[T]) Set(_ context.Context, key string, value T) {
	if key == "" {
		return
	}

	expiresAt := time.Time{}
	if s.ttl > 0 {
		expiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	s.entries[key] = entry[T]{value: value, expiresAt: expiresAt}
	s.mu.Unlock()
}

// Patch rewrites an existing entry in place without touching its expiry.
// The toggle flow uses this to swap just the watched/notified id sets of a
// cached day instead of refetching the whole schedule payload.
func (s *Store[T]) Patch(_ context.Context, key string, apply func(T) T) bool {
	if key == "" || apply == nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false
	}
	if s.ttl > 0 && !e.expiresAt.After(s.now()) {
		delete(s.entries, key)
		return false
	}

	e.value = apply(e.value)
	s.entries[key] = e
	return true
}

func (s *Store[T]) Invalidate(_ context.Context, key string) {
	if key == "" {
		return
	}

	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

func (s *Store[T]) InvalidateAll(_ context.Context) {
	s.mu.Lock()
	s.entries = make(map[string]entry[T])
	s.mu.Unlock()
}

// GetOrLoad returns the cached value or runs loader, deduplicating
// concurrent loads for the same key.
func (s *Store[T]) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (T, error)) (T, error) {
	var zero T
	if loader == nil {
		return zero, fmt.Errorf("loader is required")
	}
	if key == "" {
		return loader(ctx)
	}

	if value, ok := s.Get(ctx, key); ok {
		return value, nil
	}

	value, err, _ := s.flight.Do(key, func() (any, error) {
		if cached, ok := s.Get(ctx, key); ok {
			return cached, nil
		}

		loaded, loadErr := loader(ctx)
		if loadErr != nil {
			return nil, loadErr
		}
		s.Set(ctx, key, loaded)
		return loaded, nil
	})
	if err != nil {
		return zero, err
	}

	typed, ok := value.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected cached value type %T", value)
	}
	return typed, nil
}
