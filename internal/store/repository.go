/**
 * @description
 * This file defines the `Repository` interface: the contract for all data
 * access the pledge-gateway needs. The gateway owns only flow state —
 * checkout sessions, campaign drafts, and the processed-webhook ledger —
 * while all campaign/donation business data stays with the core API.
 * The interface keeps the application logic decoupled from PostgreSQL and
 * easy to stub in tests.
 */

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/crowdfundn/pledge-gateway/internal/domain"
)

var (
	ErrCheckoutSessionNotFound = errors.New("checkout session not found")
	ErrSessionNotCancellable   = errors.New("checkout session is no longer cancellable")
	ErrCheckoutNotEditable     = errors.New("checkout session is no longer editable")
	ErrCheckoutNotPending      = errors.New("checkout session is not pending")
	ErrDraftNotFound           = errors.New("campaign draft not found")
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Checkout session methods
	CreateCheckoutSession(ctx context.Context, session *domain.CheckoutSession) error
	FindCheckoutSessionByID(ctx context.Context, sessionID uuid.UUID) (*domain.CheckoutSession, error)
	FindCheckoutSessionByToken(ctx context.Context, token string) (*domain.CheckoutSession, error)
	FindCheckoutSessionByIntentID(ctx context.Context, intentID string) (*domain.CheckoutSession, error)
	// UpdateCheckoutPledge persists a new pledge selection; only sessions
	// still in method_selection are editable.
	UpdateCheckoutPledge(ctx context.Context, sessionID uuid.UUID, pledge domain.PledgeSelection) error
	// MarkCheckoutSubmitted moves method_selection -> pending, recording the
	// chosen method, redacted card reference, donor identity, and the
	// provider intent id.
	MarkCheckoutSubmitted(ctx context.Context, sessionID uuid.UUID, params SubmitCheckoutParams) error
	// SettleCheckoutSession moves pending -> terminal. Updates against
	// sessions that already left pending affect no rows and return
	// ErrCheckoutNotPending, which is how stale event replays are dropped.
	SettleCheckoutSession(ctx context.Context, sessionID uuid.UUID, status domain.CheckoutStatus, failureReason *string) error
	// CancelCheckoutSession discards a session still in method_selection.
	// Unknown ids return ErrCheckoutSessionNotFound; sessions past method
	// selection return ErrSessionNotCancellable.
	CancelCheckoutSession(ctx context.Context, sessionID uuid.UUID) error
	FindExpiredPendingCheckouts(ctx context.Context, pendingSince time.Time, limit int) ([]domain.CheckoutSession, error)

	// Campaign draft (wizard) methods
	CreateCampaignDraft(ctx context.Context, draft *domain.CampaignDraft) error
	FindCampaignDraftByID(ctx context.Context, draftID uuid.UUID, creatorID string) (*domain.CampaignDraft, error)
	ListCampaignDraftsByCreator(ctx context.Context, creatorID string) ([]domain.CampaignDraft, error)
	UpdateCampaignDraft(ctx context.Context, draft *domain.CampaignDraft) error
	DeleteCampaignDraft(ctx context.Context, draftID uuid.UUID, creatorID string) (bool, error)
	DeleteExpiredDrafts(ctx context.Context, updatedBefore time.Time) (int64, error)

	// Webhook idempotency ledger
	// MarkWebhookEventProcessed records the provider event id and reports
	// whether this delivery was the first one.
	MarkWebhookEventProcessed(ctx context.Context, eventID string) (bool, error)
	PurgeProcessedWebhookEvents(ctx context.Context, processedBefore time.Time) (int64, error)
}

// SubmitCheckoutParams carries the fields recorded when a session is
// submitted for processing. Card data arrives pre-redacted.
type SubmitCheckoutParams struct {
	Method          domain.PaymentMethod
	CardLast4       string
	DonorName       *string
	DonorEmail      *string
	GatewayIntentID string
	SubmittedAt     time.Time
}
