package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/footylog/matchlog/internal/domain/event"
	"github.com/footylog/matchlog/internal/domain/notified"
	"github.com/footylog/matchlog/internal/domain/prefs"
	"github.com/footylog/matchlog/internal/domain/watched"
	"github.com/footylog/matchlog/internal/platform/cache"
	"github.com/footylog/matchlog/internal/platform/logging"
	"github.com/footylog/matchlog/internal/platform/timeutil"
)

const defaultReminderLead = 30 * time.Minute

type flagKind string

const (
	flagWatched  flagKind = "watched"
	flagNotified flagKind = "notified"
)

// flagToggle is one optimistic transition: the pre-toggle value is the
// rollback target, the target value is what the UI already shows.
type flagToggle struct {
	kind     flagKind
	eventID  string
	previous bool
	target   bool
}

// ToggleService owns the watched and notified flag sets and runs every
// mutation through optimistic-update-then-reconcile. Per event id and flag
// kind, at most one toggle is in flight; distinct ids proceed
// independently.
type ToggleService struct {
	watchedRepo  watched.Repository
	notifiedRepo notified.Repository
	backend      SyncBackend
	scheduler    notified.Scheduler
	tokens       prefs.TokenStore
	store        *cache.Store[DaySchedule]
	logger       *logging.Logger
	clock        func() time.Time
	reminderLead time.Duration

	mu              sync.Mutex
	watchedIDs      map[string]struct{}
	notifiedIDs     map[string]struct{}
	pendingWatched  map[string]struct{}
	pendingNotified map[string]struct{}
}

type ToggleServiceConfig struct {
	WatchedRepo  watched.Repository
	NotifiedRepo notified.Repository
	Backend      SyncBackend
	Scheduler    notified.Scheduler
	Tokens       prefs.TokenStore
	Store        *cache.Store[DaySchedule]
	Logger       *logging.Logger
	Clock        func() time.Time
	ReminderLead time.Duration
}

func NewToggleService(cfg ToggleServiceConfig) *ToggleService {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	lead := cfg.ReminderLead
	if lead <= 0 {
		lead = defaultReminderLead
	}
	return &ToggleService{
		watchedRepo:     cfg.WatchedRepo,
		notifiedRepo:    cfg.NotifiedRepo,
		backend:         cfg.Backend,
		scheduler:       cfg.Scheduler,
		tokens:          cfg.Tokens,
		store:           cfg.Store,
		logger:          logger,
		clock:           clock,
		reminderLead:    lead,
		watchedIDs:      make(map[string]struct{}),
		notifiedIDs:     make(map[string]struct{}),
		pendingWatched:  make(map[string]struct{}),
		pendingNotified: make(map[string]struct{}),
	}
}

// Hydrate seeds the in-memory flag sets from durable state, once at
// startup.
func (s *ToggleService) Hydrate(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ToggleService.Hydrate")
	defer span.End()

	var (
		watchedEvents []watched.WatchedEvent
		err           error
	)
	if s.backend != nil {
		watchedEvents, err = s.backend.ListWatched(ctx)
	} else {
		watchedEvents, err = s.watchedRepo.List(ctx)
	}
	if err != nil {
		return fmt.Errorf("hydrate watched set: %w", err)
	}

	var registrations []notified.Registration
	if s.notifiedRepo != nil {
		registrations, err = s.notifiedRepo.List(ctx)
		if err != nil {
			return fmt.Errorf("hydrate notified set: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchedIDs = make(map[string]struct{}, len(watchedEvents))
	for _, item := range watchedEvents {
		s.watchedIDs[item.ID] = struct{}{}
	}
	s.notifiedIDs = make(map[string]struct{}, len(registrations))
	for _, reg := range registrations {
		s.notifiedIDs[reg.Event.ID] = struct{}{}
	}
	return nil
}

// SeedMembership merges a fetched day's flag sets into the in-memory state;
// the backend envelope is authoritative for ids it mentions.
func (s *ToggleService) SeedMembership(day DaySchedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range day.WatchedIDs {
		s.watchedIDs[id] = struct{}{}
	}
	for id := range day.NotifiedIDs {
		s.notifiedIDs[id] = struct{}{}
	}
}

func (s *ToggleService) IsWatched(eventID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.watchedIDs[eventID]
	return ok
}

func (s *ToggleService) IsNotified(eventID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.notifiedIDs[eventID]
	return ok
}

// ToggleWatched flips the watched flag for ev. It returns the flag's value
// after the toggle settles; on failure the optimistic flip is rolled back
// and the pre-toggle value returned alongside the error.
func (s *ToggleService) ToggleWatched(ctx context.Context, ev event.Event) (bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ToggleService.ToggleWatched")
	defer span.End()

	if ev.ID == "" {
		return false, fmt.Errorf("%w: event id is required", ErrInvalidInput)
	}

	t, err := s.begin(flagWatched, ev.ID)
	if err != nil {
		return s.IsWatched(ev.ID), err
	}

	if mutErr := s.mutateWatched(ctx, ev, t.target); mutErr != nil {
		return s.fail(ctx, t, mutErr)
	}

	s.commit(ctx, t, ev)
	return t.target, nil
}

// ToggleNotified flips the reminder flag. Scheduling preconditions (match
// safely in the future with a concrete kickoff, notification permission
// granted) are checked before the state machine is entered, so a rejection
// mutates nothing.
func (s *ToggleService) ToggleNotified(ctx context.Context, ev event.Event) (bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ToggleService.ToggleNotified")
	defer span.End()

	if ev.ID == "" {
		return false, fmt.Errorf("%w: event id is required", ErrInvalidInput)
	}

	enabling := !s.IsNotified(ev.ID)
	var kickoff time.Time
	if enabling {
		var err error
		kickoff, err = s.checkNotifyPreconditions(ctx, ev)
		if err != nil {
			return false, err
		}
	}

	t, err := s.begin(flagNotified, ev.ID)
	if err != nil {
		return s.IsNotified(ev.ID), err
	}

	var mutErr error
	if t.target {
		mutErr = s.enableReminder(ctx, ev, kickoff)
	} else {
		mutErr = s.disableReminder(ctx, ev)
	}
	if mutErr != nil {
		return s.fail(ctx, t, mutErr)
	}

	s.commit(ctx, t, ev)
	return t.target, nil
}

func (s *ToggleService) checkNotifyPreconditions(ctx context.Context, ev event.Event) (time.Time, error) {
	now := s.clock()
	if status := timeutil.MatchStatus(ev.Date, ev.Time, now); status != timeutil.StatusFuture {
		return time.Time{}, fmt.Errorf("%w: match is %s, reminders need an upcoming match", ErrPreconditionFailed, status)
	}

	kickoff, ok := timeutil.ComposeUTC(ev.Date, ev.Time)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: match has no confirmed kickoff time", ErrPreconditionFailed)
	}

	granted, err := s.scheduler.RequestPermission(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("request notification permission: %w", err)
	}
	if !granted {
		return time.Time{}, ErrPermissionDenied
	}
	return kickoff, nil
}

func (s *ToggleService) mutateWatched(ctx context.Context, ev event.Event, target bool) error {
	if target {
		if s.backend != nil {
			return s.backend.AddWatched(ctx, ev)
		}
		return s.watchedRepo.Add(ctx, watched.WatchedEvent{Event: ev, CreatedAt: s.clock()})
	}
	if s.backend != nil {
		return s.backend.RemoveWatched(ctx, ev.ID)
	}
	return s.watchedRepo.Remove(ctx, ev.ID)
}

func (s *ToggleService) enableReminder(ctx context.Context, ev event.Event, kickoff time.Time) error {
	payload := notified.Payload{
		EventID: ev.ID,
		Title:   ev.HomeTeam + " vs " + ev.AwayTeam,
		Body:    "Kicks off at " + timeutil.FormatEventTime(ev.Date, ev.Time),
	}

	notificationID, err := s.scheduler.ScheduleAt(ctx, kickoff.Add(-s.reminderLead), payload)
	if err != nil {
		return fmt.Errorf("schedule reminder: %w", err)
	}

	if s.backend != nil {
		err = s.backend.AddNotified(ctx, ev, notificationID)
	} else {
		err = s.notifiedRepo.Add(ctx, notified.Registration{
			Event:          ev,
			NotificationID: notificationID,
			CreatedAt:      s.clock(),
		})
	}
	if err != nil {
		// Registration failed: take the device notification back down so
		// the stored state and the scheduled state cannot diverge.
		if cancelErr := s.scheduler.Cancel(ctx, notificationID); cancelErr != nil {
			s.logger.WarnContext(ctx, "cancel reminder after failed registration", "event_id", ev.ID, "error", cancelErr)
		}
		return fmt.Errorf("register reminder: %w", err)
	}
	return nil
}

// disableReminder cancels the concrete device notification before removing
// the registration record. Removing the record first would leave an
// orphaned notification with no handle to cancel it by.
func (s *ToggleService) disableReminder(ctx context.Context, ev event.Event) error {
	var (
		reg   notified.Registration
		found bool
		err   error
	)
	if s.backend != nil {
		reg, found, err = s.backend.GetNotified(ctx, ev.ID)
	} else {
		reg, found, err = s.notifiedRepo.Get(ctx, ev.ID)
	}
	if err != nil {
		return fmt.Errorf("look up reminder registration: %w", err)
	}

	if found && reg.NotificationID != "" {
		if err := s.scheduler.Cancel(ctx, reg.NotificationID); err != nil {
			return fmt.Errorf("cancel reminder: %w", err)
		}
	}

	if s.backend != nil {
		err = s.backend.RemoveNotified(ctx, ev.ID)
	} else {
		err = s.notifiedRepo.Remove(ctx, ev.ID)
	}
	if err != nil {
		return fmt.Errorf("remove reminder registration: %w", err)
	}
	return nil
}

// begin applies the optimistic flip and marks the id pending. A toggle
// arriving while the same id/kind is pending is rejected, never
// double-fired.
func (s *ToggleService) begin(kind flagKind, eventID string) (flagToggle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.pendingFor(kind)
	if _, busy := pending[eventID]; busy {
		return flagToggle{}, fmt.Errorf("%w: %s toggle for event %s", ErrToggleInFlight, kind, eventID)
	}

	set := s.setFor(kind)
	_, previous := set[eventID]
	t := flagToggle{kind: kind, eventID: eventID, previous: previous, target: !previous}
	applyMembership(set, eventID, t.target)
	pending[eventID] = struct{}{}
	return t, nil
}

func (s *ToggleService) commit(ctx context.Context, t flagToggle, ev event.Event) {
	s.mu.Lock()
	delete(s.pendingFor(t.kind), t.eventID)
	s.mu.Unlock()

	if s.store == nil || ev.Date == "" {
		return
	}
	now := s.clock()
	s.store.Patch(ctx, ev.Date, func(day DaySchedule) DaySchedule {
		switch t.kind {
		case flagWatched:
			day.WatchedIDs = patchSet(day.WatchedIDs, t.eventID, t.target)
			day.Stats = UpdateStatsForToggle(day.Stats, ev, t.previous, now)
		case flagNotified:
			day.NotifiedIDs = patchSet(day.NotifiedIDs, t.eventID, t.target)
		}
		return day
	})
}

func (s *ToggleService) rollback(t flagToggle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	applyMembership(s.setFor(t.kind), t.eventID, t.previous)
	delete(s.pendingFor(t.kind), t.eventID)
}

// fail resolves a mutation error: auth failures purge the session, anything
// else rolls the optimistic flip back.
func (s *ToggleService) fail(ctx context.Context, t flagToggle, mutErr error) (bool, error) {
	if errors.Is(mutErr, ErrUnauthorized) {
		s.purgeSession(ctx)
		return false, fmt.Errorf("toggle %s %s: %w", t.kind, t.eventID, mutErr)
	}
	s.rollback(t)
	return t.previous, fmt.Errorf("toggle %s %s: %w", t.kind, t.eventID, mutErr)
}

// purgeSession clears every piece of auth-scoped local state after the
// backend rejected the session; the caller is forced back through sign-in
// rather than retrying into the same 401.
func (s *ToggleService) purgeSession(ctx context.Context) {
	s.mu.Lock()
	s.watchedIDs = make(map[string]struct{})
	s.notifiedIDs = make(map[string]struct{})
	s.pendingWatched = make(map[string]struct{})
	s.pendingNotified = make(map[string]struct{})
	s.mu.Unlock()

	if s.store != nil {
		s.store.InvalidateAll(ctx)
	}
	if s.tokens != nil {
		if err := s.tokens.ClearToken(ctx); err != nil {
			s.logger.WarnContext(ctx, "clear session token", "error", err)
		}
	}
	s.logger.WarnContext(ctx, "session rejected, local auth-scoped state purged")
}

func (s *ToggleService) setFor(kind flagKind) map[string]struct{} {
	if kind == flagNotified {
		return s.notifiedIDs
	}
	return s.watchedIDs
}

func (s *ToggleService) pendingFor(kind flagKind) map[string]struct{} {
	if kind == flagNotified {
		return s.pendingNotified
	}
	return s.pendingWatched
}

func applyMembership(set map[string]struct{}, id string, member bool) {
	if member {
		set[id] = struct{}{}
		return
	}
	delete(set, id)
}

func patchSet(set map[string]struct{}, id string, member bool) map[string]struct{} {
	out := make(map[string]struct{}, len(set)+1)
	for k := range set {
		out[k] = struct{}{}
	}
	applyMembership(out, id, member)
	return out
}
