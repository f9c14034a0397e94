package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/footylog/matchlog/internal/domain/watched"
	"github.com/footylog/matchlog/internal/platform/logging"
)

// InsightsService recomputes stats and insights on demand from the full
// watched set; nothing derived is ever stored.
type InsightsService struct {
	watchedRepo watched.Repository
	backend     SyncBackend
	logger      *logging.Logger
	clock       func() time.Time
}

func NewInsightsService(watchedRepo watched.Repository, backend SyncBackend, logger *logging.Logger, clock func() time.Time) *InsightsService {
	if logger == nil {
		logger = logging.Default()
	}
	if clock == nil {
		clock = time.Now
	}
	return &InsightsService{
		watchedRepo: watchedRepo,
		backend:     backend,
		logger:      logger,
		clock:       clock,
	}
}

func (s *InsightsService) ListWatched(ctx context.Context) ([]watched.WatchedEvent, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.InsightsService.ListWatched")
	defer span.End()

	var (
		events []watched.WatchedEvent
		err    error
	)
	if s.backend != nil {
		events, err = s.backend.ListWatched(ctx)
	} else {
		events, err = s.watchedRepo.List(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("list watched events: %w", err)
	}
	return events, nil
}

func (s *InsightsService) Stats(ctx context.Context) (watched.Stats, error) {
	events, err := s.ListWatched(ctx)
	if err != nil {
		return watched.Stats{}, err
	}
	return ComputeStats(events, s.clock()), nil
}

func (s *InsightsService) Insights(ctx context.Context) (watched.Insights, error) {
	events, err := s.ListWatched(ctx)
	if err != nil {
		return watched.Insights{}, err
	}
	return ComputeInsights(events, s.clock()), nil
}

func (s *InsightsService) Grouped(ctx context.Context) ([]watched.DayGroup, error) {
	events, err := s.ListWatched(ctx)
	if err != nil {
		return nil, err
	}
	return GroupWatchedEvents(events), nil
}
