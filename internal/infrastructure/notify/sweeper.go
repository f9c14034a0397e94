package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/footylog/matchlog/internal/domain/notified"
	"github.com/footylog/matchlog/internal/platform/logging"
	"github.com/footylog/matchlog/internal/platform/timeutil"
)

// Sweeper reconciles stored notification registrations after a restart:
// in-process timers die with the process, so every surviving registration
// is either re-armed or retired.
type Sweeper struct {
	repo      notified.Repository
	scheduler notified.Scheduler
	lead      time.Duration
	workers   int
	logger    *logging.Logger
	clock     func() time.Time
}

type SweeperConfig struct {
	Repo      notified.Repository
	Scheduler notified.Scheduler
	Lead      time.Duration
	Workers   int
	Logger    *logging.Logger
	Clock     func() time.Time
}

func NewSweeper(cfg SweeperConfig) *Sweeper {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	return &Sweeper{
		repo:      cfg.Repo,
		scheduler: cfg.Scheduler,
		lead:      cfg.Lead,
		workers:   workers,
		logger:    logger,
		clock:     clock,
	}
}

// Sweep walks every registration on a worker pool. Registrations whose
// reminder moment is still ahead get a fresh timer and an updated handle;
// the rest are removed.
func (s *Sweeper) Sweep(ctx context.Context) error {
	registrations, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("list notification registrations: %w", err)
	}
	if len(registrations) == 0 {
		return nil
	}

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return fmt.Errorf("create sweep pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for _, reg := range registrations {
		reg := reg
		wg.Add(1)
		if submitErr := pool.Submit(func() {
			defer wg.Done()
			s.reconcile(ctx, reg)
		}); submitErr != nil {
			wg.Done()
			s.logger.WarnContext(ctx, "sweep submit failed", "event_id", reg.Event.ID, "error", submitErr)
		}
	}
	wg.Wait()
	return nil
}

func (s *Sweeper) reconcile(ctx context.Context, reg notified.Registration) {
	kickoff, ok := timeutil.ComposeUTC(reg.Event.Date, reg.Event.Time)
	reminderAt := kickoff.Add(-s.lead)

	if !ok || !reminderAt.After(s.clock()) {
		s.retire(ctx, reg)
		return
	}

	payload := notified.Payload{
		EventID: reg.Event.ID,
		Title:   "Kickoff soon",
		Body:    fmt.Sprintf("%s vs %s starts at %s", reg.Event.HomeTeam, reg.Event.AwayTeam, timeutil.FormatEventTime(reg.Event.Date, reg.Event.Time)),
	}

	notificationID, err := s.scheduler.ScheduleAt(ctx, reminderAt, payload)
	if err != nil {
		s.logger.WarnContext(ctx, "sweep re-arm failed", "event_id", reg.Event.ID, "error", err)
		return
	}

	reg.NotificationID = notificationID
	if err := s.repo.Add(ctx, reg); err != nil {
		s.logger.WarnContext(ctx, "sweep handle update failed", "event_id", reg.Event.ID, "error", err)
	}
}

func (s *Sweeper) retire(ctx context.Context, reg notified.Registration) {
	if err := s.scheduler.Cancel(ctx, reg.NotificationID); err != nil {
		s.logger.WarnContext(ctx, "sweep cancel failed", "event_id", reg.Event.ID, "error", err)
	}
	if err := s.repo.Remove(ctx, reg.Event.ID); err != nil {
		s.logger.WarnContext(ctx, "sweep remove failed", "event_id", reg.Event.ID, "error", err)
	}
}
