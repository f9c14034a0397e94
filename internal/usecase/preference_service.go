package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/footylog/matchlog/internal/domain/prefs"
	"github.com/footylog/matchlog/internal/platform/cache"
	"github.com/footylog/matchlog/internal/platform/logging"
)

// PreferenceService reads and writes display preferences. Saving drops the
// whole schedule cache: favorites and league ordering regroup cached
// payloads in ways a local patch cannot express.
type PreferenceService struct {
	repo   prefs.Repository
	store  *cache.Store[DaySchedule]
	logger *logging.Logger
}

func NewPreferenceService(repo prefs.Repository, store *cache.Store[DaySchedule], logger *logging.Logger) *PreferenceService {
	if logger == nil {
		logger = logging.Default()
	}
	return &PreferenceService{repo: repo, store: store, logger: logger}
}

func (s *PreferenceService) Get(ctx context.Context) (prefs.Preferences, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PreferenceService.Get")
	defer span.End()

	p, err := s.repo.Get(ctx)
	if err != nil {
		return prefs.Preferences{}, fmt.Errorf("load preferences: %w", err)
	}
	return p, nil
}

func (s *PreferenceService) Save(ctx context.Context, p prefs.Preferences) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.PreferenceService.Save")
	defer span.End()

	p.FavoriteTeams = dedupeTrimmed(p.FavoriteTeams)
	p.LeagueOrder = dedupeTrimmed(p.LeagueOrder)
	p.CollapsedLeagues = dedupeTrimmed(p.CollapsedLeagues)
	p.HiddenLeagues = dedupeTrimmed(p.HiddenLeagues)

	if err := s.repo.Save(ctx, p); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	if s.store != nil {
		s.store.InvalidateAll(ctx)
	}
	return nil
}

func dedupeTrimmed(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
