/**
 * @description
 * Scheduled job implementations for the pledge-gateway: sweeping
 * overdue pending checkouts into a terminal state, purging abandoned
 * wizard drafts, and trimming the webhook idempotency ledger.
 */
package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/crowdfundn/pledge-gateway/internal/domain"
	"github.com/crowdfundn/pledge-gateway/internal/store"
	"github.com/crowdfundn/pledge-gateway/pkg/paygateclient"
)

// sweepBatchSize caps how many overdue sessions one sweep run handles.
const sweepBatchSize = 100

// JobsRepository defines the database operations needed by the jobs.
type JobsRepository interface {
	FindExpiredPendingCheckouts(ctx context.Context, pendingSince time.Time, limit int) ([]domain.CheckoutSession, error)
	SettleCheckoutSession(ctx context.Context, sessionID uuid.UUID, status domain.CheckoutStatus, failureReason *string) error
	DeleteExpiredDrafts(ctx context.Context, updatedBefore time.Time) (int64, error)
	PurgeProcessedWebhookEvents(ctx context.Context, processedBefore time.Time) (int64, error)
}

// IntentPoller polls the payment provider for an intent's final word
// before a session is written off as timed out.
type IntentPoller interface {
	GetIntentStatus(ctx context.Context, intentID string) (*paygateclient.IntentResponse, error)
}

// Jobs contains the logic for all scheduled tasks.
type Jobs struct {
	repo            JobsRepository
	poller          IntentPoller
	logger          *slog.Logger
	checkoutTimeout time.Duration
	draftTTL        time.Duration
	ledgerRetention time.Duration
}

// NewJobs creates a new Jobs runner.
func NewJobs(repo JobsRepository, poller IntentPoller, logger *slog.Logger, checkoutTimeout, draftTTL, ledgerRetention time.Duration) *Jobs {
	return &Jobs{
		repo:            repo,
		poller:          poller,
		logger:          logger,
		checkoutTimeout: checkoutTimeout,
		draftTTL:        draftTTL,
		ledgerRetention: ledgerRetention,
	}
}

// SweepPendingCheckouts times out sessions whose provider outcome never
// arrived. The provider is polled once more per session first, so a
// payment that actually settled is recorded as such instead of timed out.
func (j *Jobs) SweepPendingCheckouts() {
	j.logger.Info("starting pending checkout sweep")
	ctx := context.Background()

	cutoff := time.Now().UTC().Add(-j.checkoutTimeout)
	sessions, err := j.repo.FindExpiredPendingCheckouts(ctx, cutoff, sweepBatchSize)
	if err != nil {
		j.logger.Error("failed to find expired pending checkouts", "error", err)
		return
	}

	if len(sessions) == 0 {
		j.logger.Info("no overdue pending checkouts to process")
		return
	}

	j.logger.Info("found overdue pending checkouts", "count", len(sessions))

	for _, session := range sessions {
		status, reason := j.resolveOverdueSession(ctx, session)

		err := j.repo.SettleCheckoutSession(ctx, session.ID, status, reason)
		if errors.Is(err, store.ErrCheckoutNotPending) {
			// Settled between the query and the sweep; nothing to do.
			continue
		}
		if err != nil {
			j.logger.Error("failed to settle overdue checkout", "session_id", session.ID, "error", err)
			continue
		}
		j.logger.Info("settled overdue checkout", "session_id", session.ID, "status", status)
	}

	j.logger.Info("pending checkout sweep finished")
}

func (j *Jobs) resolveOverdueSession(ctx context.Context, session domain.CheckoutSession) (domain.CheckoutStatus, *string) {
	timeoutReason := "payment confirmation timed out"

	if session.GatewayIntentID == nil {
		return domain.CheckoutTimedOut, &timeoutReason
	}
	intent, err := j.poller.GetIntentStatus(ctx, *session.GatewayIntentID)
	if err != nil {
		j.logger.Warn("provider poll failed during sweep", "session_id", session.ID, "error", err)
		return domain.CheckoutTimedOut, &timeoutReason
	}

	switch intent.Status {
	case paygateclient.StatusSucceeded:
		return domain.CheckoutSucceeded, nil
	case paygateclient.StatusFailed:
		reason := intent.Reason
		if reason == "" {
			reason = "payment failed"
		}
		return domain.CheckoutFailed, &reason
	default:
		return domain.CheckoutTimedOut, &timeoutReason
	}
}

// PurgeExpiredDrafts deletes wizard drafts that have gone untouched past
// the retention window.
func (j *Jobs) PurgeExpiredDrafts() {
	j.logger.Info("starting draft purge job")
	ctx := context.Background()

	cutoff := time.Now().UTC().Add(-j.draftTTL)
	deleted, err := j.repo.DeleteExpiredDrafts(ctx, cutoff)
	if err != nil {
		j.logger.Error("failed to purge expired drafts", "error", err)
		return
	}

	j.logger.Info("draft purge job finished", "deleted", deleted)
}

// PurgeWebhookLedger trims old entries from the processed-webhook
// idempotency ledger.
func (j *Jobs) PurgeWebhookLedger() {
	j.logger.Info("starting webhook ledger purge job")
	ctx := context.Background()

	cutoff := time.Now().UTC().Add(-j.ledgerRetention)
	deleted, err := j.repo.PurgeProcessedWebhookEvents(ctx, cutoff)
	if err != nil {
		j.logger.Error("failed to purge webhook ledger", "error", err)
		return
	}

	j.logger.Info("webhook ledger purge job finished", "deleted", deleted)
}
