// Package memory holds the in-process repositories used when no store path
// is configured and as fixtures in tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/footylog/matchlog/internal/domain/watched"
)

type WatchedRepository struct {
	mu    sync.RWMutex
	items map[string]watched.WatchedEvent
}

func NewWatchedRepository() *WatchedRepository {
	return &WatchedRepository{items: make(map[string]watched.WatchedEvent)}
}

func (r *WatchedRepository) List(_ context.Context) ([]watched.WatchedEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]watched.WatchedEvent, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *WatchedRepository) Add(_ context.Context, item watched.WatchedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
	return nil
}

func (r *WatchedRepository) Remove(_ context.Context, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, eventID)
	return nil
}

func (r *WatchedRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = make(map[string]watched.WatchedEvent)
	return nil
}
