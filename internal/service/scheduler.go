package service

import (
	"errors"

	"golang-stock-scorer/internal/dto"
	"golang-stock-scorer/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler fires the full refresh on a cron schedule. An occupied refresh
// slot is logged and skipped, never queued.
type Scheduler struct {
	coordinator *RefreshCoordinator
	log         *logger.Logger
	cronSpec    string
	cron        *cron.Cron
}

// NewScheduler creates a Scheduler. An empty cronSpec disables it.
func NewScheduler(coordinator *RefreshCoordinator, log *logger.Logger, cronSpec string) *Scheduler {
	return &Scheduler{
		coordinator: coordinator,
		log:         log,
		cronSpec:    cronSpec,
		cron:        cron.New(),
	}
}

// Start registers the cron entry and begins scheduling.
func (s *Scheduler) Start() error {
	if s.cronSpec == "" {
		s.log.Info("Scheduled refresh disabled")
		return nil
	}

	_, err := s.cron.AddFunc(s.cronSpec, func() {
		if err := s.coordinator.StartAll(); err != nil {
			if errors.Is(err, dto.ErrAlreadyRunning) {
				s.log.Warn("Scheduled refresh skipped, a run is already active")
				return
			}
			s.log.Error("Scheduled refresh failed to start", logger.ErrorField(err))
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info("Scheduled refresh enabled", logger.StringField("cron", s.cronSpec))
	return nil
}

// Stop halts scheduling; a refresh already in flight keeps running.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
