package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/footylog/matchlog/internal/domain/notified"
)

type NotifiedRepository struct {
	mu    sync.RWMutex
	items map[string]notified.Registration
}

func NewNotifiedRepository() *NotifiedRepository {
	return &NotifiedRepository{items: make(map[string]notified.Registration)}
}

func (r *NotifiedRepository) List(_ context.Context) ([]notified.Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]notified.Registration, 0, len(r.items))
	for _, reg := range r.items {
		out = append(out, reg)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Event.ID < out[j].Event.ID
	})
	return out, nil
}

func (r *NotifiedRepository) Get(_ context.Context, eventID string) (notified.Registration, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.items[eventID]
	return reg, ok, nil
}

func (r *NotifiedRepository) Add(_ context.Context, reg notified.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[reg.Event.ID] = reg
	return nil
}

func (r *NotifiedRepository) Remove(_ context.Context, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, eventID)
	return nil
}

func (r *NotifiedRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = make(map[string]notified.Registration)
	return nil
}
