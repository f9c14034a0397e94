package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc/iter"

	"github.com/footylog/matchlog/internal/domain/event"
	"github.com/footylog/matchlog/internal/domain/notified"
	"github.com/footylog/matchlog/internal/domain/prefs"
	"github.com/footylog/matchlog/internal/domain/watched"
	"github.com/footylog/matchlog/internal/platform/cache"
	"github.com/footylog/matchlog/internal/platform/logging"
)

// FavoritesGroupID identifies the synthetic pseudo-league assembled from
// favorite-team matches. It duplicates events for display only; totals
// count every event exactly once, from its real league.
const FavoritesGroupID = "favorites"

// DaySchedule is one queried date's cached state: the grouped fixtures plus
// the flag sets and stats the UI renders alongside them.
type DaySchedule struct {
	Date        string
	Leagues     []event.LeagueGroup
	WatchedIDs  map[string]struct{}
	NotifiedIDs map[string]struct{}
	Stats       watched.Stats
	TotalEvents int
}

type ScheduleService struct {
	provider     ScheduleProvider
	backend      SyncBackend
	leagues      []event.LeagueConfig
	store        *cache.Store[DaySchedule]
	watchedRepo  watched.Repository
	notifiedRepo notified.Repository
	prefsRepo    prefs.Repository
	logger       *logging.Logger
	clock        func() time.Time

	mu         sync.Mutex
	activeDate string
}

type ScheduleServiceConfig struct {
	Provider     ScheduleProvider
	Backend      SyncBackend
	Leagues      []event.LeagueConfig
	Store        *cache.Store[DaySchedule]
	WatchedRepo  watched.Repository
	NotifiedRepo notified.Repository
	PrefsRepo    prefs.Repository
	Logger       *logging.Logger
	Clock        func() time.Time
}

func NewScheduleService(cfg ScheduleServiceConfig) *ScheduleService {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &ScheduleService{
		provider:     cfg.Provider,
		backend:      cfg.Backend,
		leagues:      cfg.Leagues,
		store:        cfg.Store,
		watchedRepo:  cfg.WatchedRepo,
		notifiedRepo: cfg.NotifiedRepo,
		prefsRepo:    cfg.PrefsRepo,
		logger:       logger,
		clock:        clock,
	}
}

// EventsByDate returns the day's schedule, served from cache when fresh.
// The date also becomes the active query key: responses for dates the user
// has navigated away from stay cached under their own key but never become
// the active view, which is how out-of-order completions are kept from
// clobbering the current selection.
func (s *ScheduleService) EventsByDate(ctx context.Context, date string) (DaySchedule, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScheduleService.EventsByDate")
	defer span.End()

	date = strings.TrimSpace(date)
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return DaySchedule{}, fmt.Errorf("%w: date must be YYYY-MM-DD, got %q", ErrInvalidInput, date)
	}

	s.mu.Lock()
	s.activeDate = date
	s.mu.Unlock()

	return s.store.GetOrLoad(ctx, date, func(ctx context.Context) (DaySchedule, error) {
		return s.loadDay(ctx, date)
	})
}

// Refresh drops the cached entry and refetches; used when upstream state
// changed in a way the cache cannot patch locally.
func (s *ScheduleService) Refresh(ctx context.Context, date string) (DaySchedule, error) {
	s.store.Invalidate(ctx, date)
	return s.EventsByDate(ctx, date)
}

// Active returns the schedule for the currently selected date, if cached.
func (s *ScheduleService) Active(ctx context.Context) (DaySchedule, bool) {
	s.mu.Lock()
	date := s.activeDate
	s.mu.Unlock()
	if date == "" {
		return DaySchedule{}, false
	}
	return s.store.Get(ctx, date)
}

func (s *ScheduleService) loadDay(ctx context.Context, date string) (DaySchedule, error) {
	if s.backend != nil {
		return s.loadDaySynced(ctx, date)
	}
	return s.loadDayLocal(ctx, date)
}

func (s *ScheduleService) loadDaySynced(ctx context.Context, date string) (DaySchedule, error) {
	env, err := s.backend.EventsByDate(ctx, date)
	if err != nil {
		return DaySchedule{}, fmt.Errorf("fetch day schedule: %w", err)
	}

	day := DaySchedule{
		Date:        date,
		Leagues:     env.Leagues,
		WatchedIDs:  toSet(env.WatchedIDs),
		NotifiedIDs: toSet(env.NotifiedIDs),
		Stats:       env.Stats,
		TotalEvents: countEvents(env.Leagues),
	}
	day.Leagues = s.applyPreferences(ctx, day.Leagues)
	return day, nil
}

// loadDayLocal queries the provider once per configured league,
// concurrently, and merges in configured order. A single failed league
// fails the whole day: downstream grouping assumes a complete snapshot, so
// partial results are not silently served.
func (s *ScheduleService) loadDayLocal(ctx context.Context, date string) (DaySchedule, error) {
	perLeague, err := iter.MapErr(s.leagues, func(league *event.LeagueConfig) ([]event.Event, error) {
		raws, fetchErr := s.provider.EventsByDay(ctx, date, *league)
		if fetchErr != nil {
			return nil, fmt.Errorf("league %s: %w", league.ID, fetchErr)
		}
		return event.NormalizeBatch(raws, *league), nil
	})
	if err != nil {
		return DaySchedule{}, fmt.Errorf("fetch day schedule: %w", err)
	}

	groups := make([]event.LeagueGroup, 0, len(s.leagues))
	for i, league := range s.leagues {
		groups = append(groups, event.LeagueGroup{
			ID:     league.ID,
			Name:   league.Name,
			Badge:  league.Badge,
			Events: perLeague[i],
		})
	}

	day := DaySchedule{
		Date:        date,
		Leagues:     s.applyPreferences(ctx, groups),
		TotalEvents: countEvents(groups),
	}

	watchedEvents, err := s.watchedRepo.List(ctx)
	if err != nil {
		return DaySchedule{}, fmt.Errorf("list watched events: %w", err)
	}
	day.WatchedIDs = make(map[string]struct{}, len(watchedEvents))
	for _, item := range watchedEvents {
		day.WatchedIDs[item.ID] = struct{}{}
	}
	day.Stats = ComputeStats(watchedEvents, s.clock())

	registrations, err := s.notifiedRepo.List(ctx)
	if err != nil {
		return DaySchedule{}, fmt.Errorf("list notification registrations: %w", err)
	}
	day.NotifiedIDs = make(map[string]struct{}, len(registrations))
	for _, reg := range registrations {
		day.NotifiedIDs[reg.Event.ID] = struct{}{}
	}

	return day, nil
}

// applyPreferences hides, reorders, and prepends the synthetic Favorites
// group. Preference failures degrade to the configured default view.
func (s *ScheduleService) applyPreferences(ctx context.Context, groups []event.LeagueGroup) []event.LeagueGroup {
	if s.prefsRepo == nil {
		return groups
	}

	p, err := s.prefsRepo.Get(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "load preferences failed, using defaults", "error", err)
		return groups
	}

	hidden := toSet(p.HiddenLeagues)
	visible := make([]event.LeagueGroup, 0, len(groups))
	for _, g := range groups {
		if _, hide := hidden[g.ID]; hide {
			continue
		}
		visible = append(visible, g)
	}

	visible = reorderLeagues(visible, p.LeagueOrder)

	if fav := buildFavoritesGroup(visible, p.FavoriteTeams); fav != nil {
		visible = append([]event.LeagueGroup{*fav}, visible...)
	}
	return visible
}

func reorderLeagues(groups []event.LeagueGroup, order []string) []event.LeagueGroup {
	if len(order) == 0 {
		return groups
	}

	rank := make(map[string]int, len(order))
	for i, id := range order {
		rank[id] = i
	}

	ordered := make([]event.LeagueGroup, 0, len(groups))
	rest := make([]event.LeagueGroup, 0, len(groups))
	for _, g := range groups {
		if _, listed := rank[g.ID]; listed {
			ordered = append(ordered, g)
		} else {
			rest = append(rest, g)
		}
	}
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && rank[ordered[j].ID] < rank[ordered[j-1].ID]; j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}
	return append(ordered, rest...)
}

func buildFavoritesGroup(groups []event.LeagueGroup, favoriteTeams []string) *event.LeagueGroup {
	if len(favoriteTeams) == 0 {
		return nil
	}

	favorites := make(map[string]struct{}, len(favoriteTeams))
	for _, team := range favoriteTeams {
		if trimmed := strings.TrimSpace(team); trimmed != "" {
			favorites[trimmed] = struct{}{}
		}
	}

	var picked []event.Event
	for _, g := range groups {
		for _, ev := range g.Events {
			if _, home := favorites[ev.HomeTeam]; home {
				picked = append(picked, ev)
				continue
			}
			if _, away := favorites[ev.AwayTeam]; away {
				picked = append(picked, ev)
			}
		}
	}
	if len(picked) == 0 {
		return nil
	}

	return &event.LeagueGroup{
		ID:     FavoritesGroupID,
		Name:   "Favorites",
		Events: picked,
	}
}

func countEvents(groups []event.LeagueGroup) int {
	total := 0
	for _, g := range groups {
		total += len(g.Events)
	}
	return total
}

func toSet(ids []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			out[id] = struct{}{}
		}
	}
	return out
}
