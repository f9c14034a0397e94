// Package notify implements the reminder delivery side: an in-process
// scheduler standing in for the device notification surface, and a startup
// sweeper that reconciles stored registrations against it.
package notify

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/footylog/matchlog/internal/domain/notified"
	"github.com/footylog/matchlog/internal/platform/logging"
)

// DeliverFunc receives a reminder when its timer fires.
type DeliverFunc func(payload notified.Payload)

// LocalScheduler arms one timer per registration. Permission is granted
// once per process after the channel is provisioned, mirroring how a device
// surface gates notifications.
type LocalScheduler struct {
	mu          sync.Mutex
	pending     map[string]*time.Timer
	provisioned bool
	granted     bool
	denyAll     bool
	seq         atomic.Uint64
	deliver     DeliverFunc
	logger      *logging.Logger
}

func NewLocalScheduler(deliver DeliverFunc, logger *logging.Logger) *LocalScheduler {
	if logger == nil {
		logger = logging.Default()
	}
	s := &LocalScheduler{
		pending: make(map[string]*time.Timer),
		logger:  logger,
	}
	if deliver == nil {
		deliver = func(payload notified.Payload) {
			s.logger.Info("reminder fired", "event_id", payload.EventID, "title", payload.Title)
		}
	}
	s.deliver = deliver
	return s
}

// DenyPermission makes every later RequestPermission answer false. Used to
// exercise the permission-denied path.
func (s *LocalScheduler) DenyPermission() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.denyAll = true
	s.granted = false
}

func (s *LocalScheduler) RequestPermission(_ context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Channel provisioning has to happen before a permission answer is
	// meaningful.
	if !s.provisioned {
		s.provisioned = true
	}
	if s.denyAll {
		return false, nil
	}
	s.granted = true
	return true, nil
}

func (s *LocalScheduler) ScheduleAt(_ context.Context, at time.Time, payload notified.Payload) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.granted {
		return "", fmt.Errorf("notification permission not granted")
	}

	id := fmt.Sprintf("ntf-%d-%d", time.Now().UnixNano(), s.seq.Add(1))
	delay := time.Until(at)
	if delay < 0 {
		delay = 0
	}

	s.pending[id] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
		s.deliver(payload)
	})
	return id, nil
}

func (s *LocalScheduler) Cancel(_ context.Context, notificationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer, ok := s.pending[notificationID]
	if !ok {
		// Already fired or never armed in this process. Nothing to undo.
		return nil
	}
	timer.Stop()
	delete(s.pending, notificationID)
	return nil
}

// PendingCount reports how many timers are armed.
func (s *LocalScheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
