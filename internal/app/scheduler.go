/**
 * @description
 * Cron scheduler setup for the gateway's background jobs.
 */
package app

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/crowdfundn/pledge-gateway/internal/config"
)

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron   *cron.Cron
	jobs   *Jobs
	logger *slog.Logger
	config config.Config
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(jobs *Jobs, logger *slog.Logger, cfg config.Config) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:   c,
		jobs:   jobs,
		logger: logger,
		config: cfg,
	}
}

// Start registers the jobs and starts the cron scheduler.
func (s *Scheduler) Start() {
	if _, err := s.cron.AddFunc(s.config.CheckoutSweepSchedule, s.jobs.SweepPendingCheckouts); err != nil {
		s.logger.Error("failed to schedule checkout sweep job", "error", err)
	} else {
		s.logger.Info("scheduled checkout sweep job", "schedule", s.config.CheckoutSweepSchedule)
	}

	if _, err := s.cron.AddFunc(s.config.DraftPurgeSchedule, s.jobs.PurgeExpiredDrafts); err != nil {
		s.logger.Error("failed to schedule draft purge job", "error", err)
	} else {
		s.logger.Info("scheduled draft purge job", "schedule", s.config.DraftPurgeSchedule)
	}

	if _, err := s.cron.AddFunc(s.config.WebhookLedgerSchedule, s.jobs.PurgeWebhookLedger); err != nil {
		s.logger.Error("failed to schedule webhook ledger purge job", "error", err)
	} else {
		s.logger.Info("scheduled webhook ledger purge job", "schedule", s.config.WebhookLedgerSchedule)
	}

	s.cron.Start()
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
