package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestStoreGetSet(t *testing.T) {
	clock := newFakeClock()
	store := NewStore[string](time.Minute, clock.Now)
	ctx := context.Background()

	if _, ok := store.Get(ctx, "k"); ok {
		t.Fatal("expected miss on empty store")
	}

	store.Set(ctx, "k", "v")
	got, ok := store.Get(ctx, "k")
	if !ok || got != "v" {
		t.Fatalf("Get = (%q, %t), want (v, true)", got, ok)
	}
}

func TestStoreExpiry(t *testing.T) {
	clock := newFakeClock()
	store := NewStore[string](time.Minute, clock.Now)
	ctx := context.Background()

	store.Set(ctx, "k", "v")

	clock.Advance(59 * time.Second)
	if _, ok := store.Get(ctx, "k"); !ok {
		t.Fatal("entry expired too early")
	}

	clock.Advance(2 * time.Second)
	if _, ok := store.Get(ctx, "k"); ok {
		t.Fatal("entry should have expired")
	}
}

func TestStorePatch(t *testing.T) {
	clock := newFakeClock()
	store := NewStore[int](time.Minute, clock.Now)
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		if store.Patch(ctx, "absent", func(v int) int { return v + 1 }) {
			t.Fatal("patch on missing key must report false")
		}
	})

	t.Run("applies in place", func(t *testing.T) {
		store.Set(ctx, "n", 10)
		if !store.Patch(ctx, "n", func(v int) int { return v + 1 }) {
			t.Fatal("patch should succeed")
		}
		got, _ := store.Get(ctx, "n")
		if got != 11 {
			t.Fatalf("got %d, want 11", got)
		}
	})

	t.Run("preserves expiry", func(t *testing.T) {
		store.Set(ctx, "n", 10)
		clock.Advance(30 * time.Second)
		store.Patch(ctx, "n", func(v int) int { return v })
		clock.Advance(31 * time.Second)
		if _, ok := store.Get(ctx, "n"); ok {
			t.Fatal("patch must not extend the entry lifetime")
		}
	})

	t.Run("expired entry", func(t *testing.T) {
		store.Set(ctx, "n", 10)
		clock.Advance(2 * time.Minute)
		if store.Patch(ctx, "n", func(v int) int { return v + 1 }) {
			t.Fatal("patch on expired entry must report false")
		}
	})
}

func TestStoreInvalidate(t *testing.T) {
	clock := newFakeClock()
	store := NewStore[string](time.Minute, clock.Now)
	ctx := context.Background()

	store.Set(ctx, "a", "1")
	store.Set(ctx, "b", "2")

	store.Invalidate(ctx, "a")
	if _, ok := store.Get(ctx, "a"); ok {
		t.Fatal("a should be gone")
	}
	if _, ok := store.Get(ctx, "b"); !ok {
		t.Fatal("b should survive")
	}

	store.InvalidateAll(ctx)
	if _, ok := store.Get(ctx, "b"); ok {
		t.Fatal("b should be gone after InvalidateAll")
	}
}

func TestStoreGetOrLoad(t *testing.T) {
	clock := newFakeClock()
	store := NewStore[string](time.Minute, clock.Now)
	ctx := context.Background()

	var calls atomic.Int32
	loader := func(context.Context) (string, error) {
		calls.Add(1)
		return "loaded", nil
	}

	got, err := store.GetOrLoad(ctx, "k", loader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "loaded" {
		t.Fatalf("got %q", got)
	}

	// Second call is served from cache.
	if _, err := store.GetOrLoad(ctx, "k", loader); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("loader ran %d times, want 1", calls.Load())
	}
}

func TestStoreGetOrLoadError(t *testing.T) {
	clock := newFakeClock()
	store := NewStore[string](time.Minute, clock.Now)
	ctx := context.Background()

	wantErr := errors.New("upstream down")
	_, err := store.GetOrLoad(ctx, "k", func(context.Context) (string, error) {
		return "", wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("error = %v, want %v", err, wantErr)
	}

	// A failed load must not poison the key.
	got, err := store.GetOrLoad(ctx, "k", func(context.Context) (string, error) {
		return "recovered", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "recovered" {
		t.Fatalf("got %q", got)
	}
}

func TestStoreGetOrLoadDeduplicates(t *testing.T) {
	clock := newFakeClock()
	store := NewStore[string](time.Minute, clock.Now)
	ctx := context.Background()

	var calls atomic.Int32
	release := make(chan struct{})
	loader := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "loaded", nil
	}

	const workers = 8
	var wg sync.WaitGroup
	results := make([]string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := store.GetOrLoad(ctx, "k", loader)
			if err != nil {
				t.Errorf("worker %d: %v", i, err)
				return
			}
			results[i] = v
		}(i)
	}

	// Give the workers a moment to pile onto the same key.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("loader ran %d times, want 1", calls.Load())
	}
	for i, v := range results {
		if v != "loaded" {
			t.Fatalf("worker %d got %q", i, v)
		}
	}
}
