package notify

import (
	"context"
	"testing"
	"time"

	"github.com/footylog/matchlog/internal/domain/event"
	"github.com/footylog/matchlog/internal/domain/notified"
	"github.com/footylog/matchlog/internal/infrastructure/repository/memory"
	"github.com/footylog/matchlog/internal/platform/logging"
)

func registrationFor(id, date, clock string) notified.Registration {
	return notified.Registration{
		Event: event.Event{
			ID:       id,
			Date:     date,
			Time:     clock,
			HomeTeam: "Home",
			AwayTeam: "Away",
		},
		NotificationID: "stale-" + id,
		CreatedAt:      time.Now(),
	}
}

func TestSweepReArmsFutureRegistrations(t *testing.T) {
	repo := memory.NewNotifiedRepository()
	scheduler := NewLocalScheduler(nil, logging.NewNop())
	ctx := context.Background()
	if _, err := scheduler.RequestPermission(ctx); err != nil {
		t.Fatalf("RequestPermission: %v", err)
	}

	if err := repo.Add(ctx, registrationFor("future", "2099-01-01", "15:00")); err != nil {
		t.Fatalf("seed repo: %v", err)
	}

	sweeper := NewSweeper(SweeperConfig{
		Repo:      repo,
		Scheduler: scheduler,
		Lead:      30 * time.Minute,
		Workers:   2,
		Logger:    logging.NewNop(),
	})
	if err := sweeper.Sweep(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if scheduler.PendingCount() != 1 {
		t.Fatalf("pending = %d, want 1 re-armed timer", scheduler.PendingCount())
	}

	reg, found, err := repo.Get(ctx, "future")
	if err != nil || !found {
		t.Fatalf("Get = (%+v, %t, %v)", reg, found, err)
	}
	if reg.NotificationID == "stale-future" {
		t.Fatal("registration handle was not refreshed")
	}
}

func TestSweepRetiresStaleRegistrations(t *testing.T) {
	repo := memory.NewNotifiedRepository()
	scheduler := NewLocalScheduler(nil, logging.NewNop())
	ctx := context.Background()
	if _, err := scheduler.RequestPermission(ctx); err != nil {
		t.Fatalf("RequestPermission: %v", err)
	}

	// A match already kicked off and one with no concrete kickoff at all.
	if err := repo.Add(ctx, registrationFor("past", "2000-01-01", "15:00")); err != nil {
		t.Fatalf("seed repo: %v", err)
	}
	if err := repo.Add(ctx, registrationFor("tbd", "2099-01-01", "")); err != nil {
		t.Fatalf("seed repo: %v", err)
	}

	sweeper := NewSweeper(SweeperConfig{
		Repo:      repo,
		Scheduler: scheduler,
		Lead:      30 * time.Minute,
		Logger:    logging.NewNop(),
	})
	if err := sweeper.Sweep(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if scheduler.PendingCount() != 0 {
		t.Fatalf("pending = %d, want 0", scheduler.PendingCount())
	}
	for _, id := range []string{"past", "tbd"} {
		if _, found, _ := repo.Get(ctx, id); found {
			t.Fatalf("registration %q should have been retired", id)
		}
	}
}

func TestSweepEmptyRepo(t *testing.T) {
	sweeper := NewSweeper(SweeperConfig{
		Repo:      memory.NewNotifiedRepository(),
		Scheduler: NewLocalScheduler(nil, logging.NewNop()),
		Logger:    logging.NewNop(),
	})
	if err := sweeper.Sweep(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
}
