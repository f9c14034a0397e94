package resilience

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSingleFlightDeduplicates(t *testing.T) {
	var g SingleFlight
	var calls atomic.Int32
	release := make(chan struct{})

	const workers = 6
	var wg sync.WaitGroup
	sharedCount := atomic.Int32{}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			val, err, shared := g.Do("key", func() (any, error) {
				calls.Add(1)
				<-release
				return 42, nil
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if val.(int) != 42 {
				t.Errorf("val = %v, want 42", val)
			}
			if shared {
				sharedCount.Add(1)
			}
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("fn ran %d times, want 1", calls.Load())
	}
	if sharedCount.Load() != workers-1 {
		t.Fatalf("shared count = %d, want %d", sharedCount.Load(), workers-1)
	}
}

func TestSingleFlightSharesError(t *testing.T) {
	var g SingleFlight
	wantErr := errors.New("boom")

	_, err, _ := g.Do("key", func() (any, error) { return nil, wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}

	// The key is released after the call completes.
	val, err, shared := g.Do("key", func() (any, error) { return "ok", nil })
	if err != nil || shared {
		t.Fatalf("second call = (%v, %v, %t)", val, err, shared)
	}
	if val.(string) != "ok" {
		t.Fatalf("val = %v", val)
	}
}

func TestSingleFlightIndependentKeys(t *testing.T) {
	var g SingleFlight
	var calls atomic.Int32

	for _, key := range []string{"a", "b"} {
		if _, err, _ := g.Do(key, func() (any, error) {
			calls.Add(1)
			return key, nil
		}); err != nil {
			t.Fatalf("key %s: %v", key, err)
		}
	}

	if calls.Load() != 2 {
		t.Fatalf("fn ran %d times, want 2", calls.Load())
	}
}
