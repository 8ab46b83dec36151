package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/reflux"
	"git.home.luguber.info/inful/reflux/internal/counter"
)

// Scheduler dispatches periodic snapshot actions so journaled sessions
// carry state checkpoints.
type Scheduler struct {
	mu        sync.Mutex
	scheduler gocron.Scheduler
	store     *reflux.Store[counter.State]
	job       gocron.Job
	interval  time.Duration
}

// NewScheduler creates a scheduler bound to the given store.
func NewScheduler(store *reflux.Store[counter.State]) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create gocron scheduler: %w", err)
	}

	return &Scheduler{scheduler: s, store: store}, nil
}

// ScheduleSnapshots registers the periodic snapshot job.
func (s *Scheduler) ScheduleSnapshots(interval time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduleLocked(interval)
}

func (s *Scheduler) scheduleLocked(interval time.Duration) error {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.snapshot),
		gocron.WithName("state-snapshot"),
	)
	if err != nil {
		return fmt.Errorf("create snapshot job: %w", err)
	}

	s.job = job
	s.interval = interval
	slog.Info("Snapshot job scheduled", "interval", interval)
	return nil
}

// Reschedule replaces the snapshot job with a new interval. Zero
// removes the job.
func (s *Scheduler) Reschedule(interval time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if interval == s.interval {
		return nil
	}

	if s.job != nil {
		if err := s.scheduler.RemoveJob(s.job.ID()); err != nil {
			return fmt.Errorf("remove snapshot job: %w", err)
		}
		s.job = nil
		s.interval = 0
	}

	if interval == 0 {
		slog.Info("Snapshot job disabled")
		return nil
	}
	return s.scheduleLocked(interval)
}

// snapshot is called by gocron to dispatch a checkpoint action.
func (s *Scheduler) snapshot() {
	state, ok := s.store.State()
	if !ok {
		// No dispatch has happened yet; nothing to checkpoint.
		return
	}

	if err := s.store.Dispatch(context.Background(), counter.Snapshot(state)); err != nil {
		slog.Error("Failed to dispatch snapshot action", "error", err)
		return
	}
	slog.Debug("State checkpoint dispatched", "count", state.Count)
}

// Start begins the scheduler.
func (s *Scheduler) Start(ctx context.Context) {
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	return s.scheduler.Shutdown()
}
