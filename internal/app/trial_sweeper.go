package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/covermapio/api/internal/metrics"
	"github.com/covermapio/api/pkg/logger"
)

// TrialSweeper periodically expires trials whose window has closed.
type TrialSweeper struct {
	accounts *AccountService
	cron     *cron.Cron
	schedule string
	logger   *logger.Logger
}

// NewTrialSweeper creates a sweeper on the given cron schedule
// (for example "@hourly").
func NewTrialSweeper(accounts *AccountService, schedule string, log *logger.Logger) (*TrialSweeper, error) {
	s := &TrialSweeper{
		accounts: accounts,
		cron:     cron.New(),
		schedule: schedule,
		logger:   log.With("component", "trial_sweeper"),
	}

	if _, err := s.cron.AddFunc(schedule, s.sweep); err != nil {
		return nil, fmt.Errorf("invalid sweeper schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins the schedule.
func (s *TrialSweeper) Start() {
	s.logger.Info("trial sweeper started", "schedule", s.schedule)
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *TrialSweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("trial sweeper stopped")
}

func (s *TrialSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.accounts.ExpireDueTrials(ctx)
	if err != nil {
		s.logger.Error("trial sweep failed", "error", err)
		return
	}
	if n > 0 {
		metrics.TrialsExpiredTotal.Add(float64(n))
	}
}
