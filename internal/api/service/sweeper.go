package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/deskbridge/deskapi/internal/api/store"
	"github.com/robfig/cron/v3"
)

// DefaultSweepSchedule runs the sweep daily at 02:00 server time.
const DefaultSweepSchedule = "0 2 * * *"

// SweeperService deletes expired session tokens on a cron schedule. A failed
// or panicking run is logged and the schedule keeps going; the sweeper never
// takes the process down.
type SweeperService struct {
	Store    store.Store
	Logger   *slog.Logger
	Schedule string

	// Now overrides the clock in tests. Nil means time.Now.
	Now func() time.Time

	cron *cron.Cron
}

func NewSweeperService(st store.Store, logger *slog.Logger, schedule string) *SweeperService {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}

	return &SweeperService{
		Store:    st,
		Logger:   logger,
		Schedule: schedule,
	}
}

func (s *SweeperService) clock() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Start registers the sweep on the cron scheduler and begins running it.
// Returns an error if the schedule expression does not parse.
func (s *SweeperService) Start() error {
	c := cron.New()
	if _, err := c.AddFunc(s.Schedule, s.runOnce); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.Schedule, err)
	}
	c.Start()

	s.cron = c
	s.Logger.Info("expiry sweeper started", "schedule", s.Schedule)
	return nil
}

// Stop halts the scheduler and waits for an in-flight sweep to finish.
func (s *SweeperService) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.Logger.Info("expiry sweeper stopped")
}

// runOnce is the cron entry point. All failure modes are contained here.
func (s *SweeperService) runOnce() {
	defer func() {
		if r := recover(); r != nil {
			s.Logger.Error("session token sweep panicked", "panic", r)
		}
	}()

	if _, err := s.Sweep(context.Background()); err != nil {
		s.Logger.Error("session token sweep failed", "error", err)
	}
}

// Sweep deletes every session token at or past its expiry and returns the
// number of rows removed.
func (s *SweeperService) Sweep(ctx context.Context) (int64, error) {
	deleted, err := s.Store.SessionTokens().DeleteExpiredSessionTokens(ctx, s.clock())
	if err != nil {
		return 0, fmt.Errorf("delete expired session tokens: %w", err)
	}

	s.Logger.Info("expired session tokens purged", "deleted", deleted)
	return deleted, nil
}
