// Package scheduler re-runs the synchronization analysis on a cron
// schedule for watch mode.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/concordia/internal/common"
)

// RunFunc executes one scheduled analysis
type RunFunc func(ctx context.Context) error

// Service triggers analysis runs on a cron schedule. Overlapping runs
// are skipped: a tick that arrives while a run is in flight is dropped.
type Service struct {
	cron     *cron.Cron
	schedule string
	run      RunFunc
	logger   arbor.ILogger

	mu      sync.Mutex
	running bool
}

// NewService creates a scheduler from configuration
func NewService(config *common.ScheduleConfig, run RunFunc, logger arbor.ILogger) (*Service, error) {
	if run == nil {
		return nil, fmt.Errorf("a run function is required")
	}
	if config.Cron == "" {
		return nil, &common.ConfigurationError{Field: "schedule.cron", Reason: "cron expression is required"}
	}

	return &Service{
		cron:     cron.New(),
		schedule: config.Cron,
		run:      run,
		logger:   logger,
	}, nil
}

// Start registers the schedule and begins ticking
func (s *Service) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.schedule, func() { s.tick(ctx) })
	if err != nil {
		return &common.ConfigurationError{Field: "schedule.cron", Reason: err.Error()}
	}

	s.cron.Start()
	s.logger.Info().Str("schedule", s.schedule).Msg("Scheduler started")
	return nil
}

// Stop halts the schedule and waits for a running job to finish
func (s *Service) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info().Msg("Scheduler stopped")
}

func (s *Service) tick(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn().Msg("Previous scheduled run still in flight, skipping tick")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.logger.Info().Msg("Scheduled analysis starting")
	if err := s.run(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Scheduled analysis failed")
		return
	}
	s.logger.Info().Msg("Scheduled analysis complete")
}
