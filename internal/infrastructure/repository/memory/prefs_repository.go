package memory

import (
	"context"
	"sync"

	"github.com/footylog/matchlog/internal/domain/prefs"
)

type PrefsRepository struct {
	mu    sync.RWMutex
	prefs prefs.Preferences
	token string
}

func NewPrefsRepository() *PrefsRepository {
	return &PrefsRepository{}
}

func (r *PrefsRepository) Get(_ context.Context) (prefs.Preferences, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return clonePreferences(r.prefs), nil
}

func (r *PrefsRepository) Save(_ context.Context, p prefs.Preferences) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefs = clonePreferences(p)
	return nil
}

func (r *PrefsRepository) Token(_ context.Context) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.token, nil
}

func (r *PrefsRepository) SaveToken(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.token = token
	return nil
}

func (r *PrefsRepository) ClearToken(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.token = ""
	return nil
}

func clonePreferences(p prefs.Preferences) prefs.Preferences {
	return prefs.Preferences{
		FavoriteTeams:    append([]string(nil), p.FavoriteTeams...),
		LeagueOrder:      append([]string(nil), p.LeagueOrder...),
		CollapsedLeagues: append([]string(nil), p.CollapsedLeagues...),
		HiddenLeagues:    append([]string(nil), p.HiddenLeagues...),
	}
}
