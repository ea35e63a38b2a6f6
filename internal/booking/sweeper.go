package booking

import (
	"context"
	"fmt"
	"time"

	"parkreserve/internal/logger"
	"parkreserve/internal/metrics"

	"github.com/robfig/cron/v3"
)

type Transitioner interface {
	TransitionDue(ctx context.Context, now time.Time) (Transitions, error)
}

// Sweeper advances booking statuses as time passes: upcoming and reserved
// bookings become active at their start, active ones complete after their
// end. Completed and cancelled bookings are never touched.
type Sweeper struct {
	repo    Transitioner
	cron    *cron.Cron
	now     func() time.Time
	timeout time.Duration
}

func NewSweeper(repo Transitioner, schedule string) (*Sweeper, error) {
	s := &Sweeper{
		repo:    repo,
		cron:    cron.New(),
		now:     time.Now,
		timeout: 30 * time.Second,
	}

	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Sweeper) Start() {
	logger.Info("Booking sweeper started")
	s.cron.Start()
}

// Stop halts scheduling and waits for a running sweep to finish or ctx to end.
func (s *Sweeper) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
	logger.Info("Booking sweeper stopped")
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.Sweep(ctx); err != nil {
		logger.Error("booking sweep failed", "error", err)
	}
}

func (s *Sweeper) Sweep(ctx context.Context) (Transitions, error) {
	t, err := s.repo.TransitionDue(ctx, s.now())
	if err != nil {
		return Transitions{}, err
	}

	metrics.RecordBookingTransitions(string(StatusActive), int(t.Activated))
	metrics.RecordBookingTransitions(string(StatusCompleted), int(t.Completed))
	if t.Activated > 0 || t.Completed > 0 {
		logger.Info("bookings transitioned", "activated", t.Activated, "completed", t.Completed)
	}
	return t, nil
}
