/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository`
 * interface. It contains the SQL for the gateway's three tables:
 * `checkout_sessions`, `campaign_drafts`, and `processed_webhook_events`.
 *
 * State-machine guards live in the SQL itself: submit and settle updates
 * carry a status predicate, so a row that already left the expected state
 * is simply not matched and the caller gets the corresponding sentinel
 * error instead of a silent overwrite.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crowdfundn/pledge-gateway/internal/domain"
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const checkoutSessionColumns = `id, token, campaign_id, donor_name, donor_email,
	reward_id, amount_raw, amount_minor, frequency,
	method, card_last4, status, failure_reason, gateway_intent_id,
	submitted_at, completed_at, created_at, updated_at`

func scanCheckoutSession(row pgx.Row) (*domain.CheckoutSession, error) {
	var (
		s         domain.CheckoutSession
		rewardID  *string
		method    *string
		cardLast4 *string
	)
	err := row.Scan(
		&s.ID, &s.Token, &s.CampaignID, &s.DonorName, &s.DonorEmail,
		&rewardID, &s.Pledge.AmountRaw, &s.Pledge.AmountMinor, &s.Pledge.Frequency,
		&method, &cardLast4, &s.Status, &s.FailureReason, &s.GatewayIntentID,
		&s.SubmittedAt, &s.CompletedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCheckoutSessionNotFound
		}
		return nil, err
	}
	if rewardID != nil {
		s.Pledge.RewardID = *rewardID
	}
	if method != nil {
		m := domain.PaymentMethod(*method)
		s.Method = &m
	}
	if cardLast4 != nil {
		s.CardLast4 = *cardLast4
	}
	return &s, nil
}

// CreateCheckoutSession inserts a new session in method_selection state.
func (r *PostgresRepository) CreateCheckoutSession(ctx context.Context, session *domain.CheckoutSession) error {
	query := `
		INSERT INTO checkout_sessions (
			id, token, campaign_id, donor_name, donor_email,
			reward_id, amount_raw, amount_minor, frequency, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		RETURNING created_at, updated_at`

	var rewardID *string
	if session.Pledge.RewardID != "" {
		rewardID = &session.Pledge.RewardID
	}
	err := r.db.QueryRow(ctx, query,
		session.ID, session.Token, session.CampaignID, session.DonorName, session.DonorEmail,
		rewardID, session.Pledge.AmountRaw, session.Pledge.AmountMinor, session.Pledge.Frequency,
		session.Status,
	).Scan(&session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert checkout session: %w", err)
	}
	return nil
}

// FindCheckoutSessionByID retrieves a session by its identifier.
func (r *PostgresRepository) FindCheckoutSessionByID(ctx context.Context, sessionID uuid.UUID) (*domain.CheckoutSession, error) {
	query := `SELECT ` + checkoutSessionColumns + ` FROM checkout_sessions WHERE id = $1`
	return scanCheckoutSession(r.db.QueryRow(ctx, query, sessionID))
}

// FindCheckoutSessionByToken resolves the opaque completion token.
func (r *PostgresRepository) FindCheckoutSessionByToken(ctx context.Context, token string) (*domain.CheckoutSession, error) {
	query := `SELECT ` + checkoutSessionColumns + ` FROM checkout_sessions WHERE token = $1`
	return scanCheckoutSession(r.db.QueryRow(ctx, query, token))
}

// FindCheckoutSessionByIntentID resolves a session from the provider's
// payment intent id, as carried on webhook events.
func (r *PostgresRepository) FindCheckoutSessionByIntentID(ctx context.Context, intentID string) (*domain.CheckoutSession, error) {
	query := `SELECT ` + checkoutSessionColumns + ` FROM checkout_sessions WHERE gateway_intent_id = $1`
	return scanCheckoutSession(r.db.QueryRow(ctx, query, intentID))
}

// UpdateCheckoutPledge persists the pledge selection while the session is
// still in method_selection.
func (r *PostgresRepository) UpdateCheckoutPledge(ctx context.Context, sessionID uuid.UUID, pledge domain.PledgeSelection) error {
	var rewardID *string
	if pledge.RewardID != "" {
		rewardID = &pledge.RewardID
	}
	query := `
		UPDATE checkout_sessions
		SET reward_id = $2, amount_raw = $3, amount_minor = $4, frequency = $5, updated_at = now()
		WHERE id = $1 AND status = $6`
	tag, err := r.db.Exec(ctx, query, sessionID, rewardID, pledge.AmountRaw, pledge.AmountMinor, pledge.Frequency, domain.CheckoutMethodSelection)
	if err != nil {
		return fmt.Errorf("failed to update pledge selection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCheckoutNotEditable
	}
	return nil
}

// MarkCheckoutSubmitted moves method_selection -> pending.
func (r *PostgresRepository) MarkCheckoutSubmitted(ctx context.Context, sessionID uuid.UUID, params SubmitCheckoutParams) error {
	query := `
		UPDATE checkout_sessions
		SET method = $2, card_last4 = $3, donor_name = COALESCE($4, donor_name),
			donor_email = COALESCE($5, donor_email), gateway_intent_id = $6,
			status = $7, submitted_at = $8, updated_at = now()
		WHERE id = $1 AND status = $9`
	tag, err := r.db.Exec(ctx, query,
		sessionID, string(params.Method), params.CardLast4, params.DonorName, params.DonorEmail,
		params.GatewayIntentID, domain.CheckoutPending, params.SubmittedAt, domain.CheckoutMethodSelection,
	)
	if err != nil {
		return fmt.Errorf("failed to mark checkout submitted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCheckoutNotEditable
	}
	return nil
}

// SettleCheckoutSession moves pending -> terminal. A session that already
// left pending is not matched, which surfaces as ErrCheckoutNotPending and
// lets callers drop stale replays.
func (r *PostgresRepository) SettleCheckoutSession(ctx context.Context, sessionID uuid.UUID, status domain.CheckoutStatus, failureReason *string) error {
	query := `
		UPDATE checkout_sessions
		SET status = $2, failure_reason = $3, completed_at = now(), updated_at = now()
		WHERE id = $1 AND status = $4`
	tag, err := r.db.Exec(ctx, query, sessionID, status, failureReason, domain.CheckoutPending)
	if err != nil {
		return fmt.Errorf("failed to settle checkout session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCheckoutNotPending
	}
	return nil
}

// CancelCheckoutSession discards a session that has not been submitted.
func (r *PostgresRepository) CancelCheckoutSession(ctx context.Context, sessionID uuid.UUID) error {
	query := `
		UPDATE checkout_sessions
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3`
	tag, err := r.db.Exec(ctx, query, sessionID, domain.CheckoutCancelled, domain.CheckoutMethodSelection)
	if err != nil {
		return fmt.Errorf("failed to cancel checkout session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Zero rows means either an unknown session or one already past
		// method selection; tell the two apart for the caller.
		var exists bool
		existsQuery := `SELECT EXISTS (SELECT 1 FROM checkout_sessions WHERE id = $1)`
		if scanErr := r.db.QueryRow(ctx, existsQuery, sessionID).Scan(&exists); scanErr != nil {
			return fmt.Errorf("failed to check checkout session existence: %w", scanErr)
		}
		if !exists {
			return ErrCheckoutSessionNotFound
		}
		return ErrSessionNotCancellable
	}
	return nil
}

// FindExpiredPendingCheckouts returns pending sessions submitted before the
// given cutoff, oldest first, for the timeout sweeper.
func (r *PostgresRepository) FindExpiredPendingCheckouts(ctx context.Context, pendingSince time.Time, limit int) ([]domain.CheckoutSession, error) {
	query := `SELECT ` + checkoutSessionColumns + `
		FROM checkout_sessions
		WHERE status = $1 AND submitted_at < $2
		ORDER BY submitted_at ASC
		LIMIT $3`
	rows, err := r.db.Query(ctx, query, domain.CheckoutPending, pendingSince, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired pending checkouts: %w", err)
	}
	defer rows.Close()

	var sessions []domain.CheckoutSession
	for rows.Next() {
		s, err := scanCheckoutSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// draftPayload is the JSONB shape persisted for a campaign draft.
type draftPayload struct {
	Details domain.DraftDetails  `json:"details"`
	Content domain.DraftContent  `json:"content"`
	Rewards []domain.DraftReward `json:"rewards"`
}

// CreateCampaignDraft inserts a new wizard draft.
func (r *PostgresRepository) CreateCampaignDraft(ctx context.Context, draft *domain.CampaignDraft) error {
	payload, err := json.Marshal(draftPayload{Details: draft.Details, Content: draft.Content, Rewards: draft.Rewards})
	if err != nil {
		return fmt.Errorf("failed to marshal draft payload: %w", err)
	}
	query := `
		INSERT INTO campaign_drafts (id, creator_id, step, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING created_at, updated_at`
	err = r.db.QueryRow(ctx, query, draft.ID, draft.CreatorID, draft.Step, payload).
		Scan(&draft.CreatedAt, &draft.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert campaign draft: %w", err)
	}
	return nil
}

func scanDraft(row pgx.Row) (*domain.CampaignDraft, error) {
	var (
		d       domain.CampaignDraft
		payload []byte
	)
	err := row.Scan(&d.ID, &d.CreatorID, &d.Step, &payload, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDraftNotFound
		}
		return nil, err
	}
	var p draftPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft payload: %w", err)
	}
	d.Details = p.Details
	d.Content = p.Content
	d.Rewards = p.Rewards
	return &d, nil
}

// FindCampaignDraftByID retrieves a draft scoped to its creator.
func (r *PostgresRepository) FindCampaignDraftByID(ctx context.Context, draftID uuid.UUID, creatorID string) (*domain.CampaignDraft, error) {
	query := `SELECT id, creator_id, step, payload, created_at, updated_at
		FROM campaign_drafts WHERE id = $1 AND creator_id = $2`
	return scanDraft(r.db.QueryRow(ctx, query, draftID, creatorID))
}

// ListCampaignDraftsByCreator returns a creator's drafts, most recent first.
func (r *PostgresRepository) ListCampaignDraftsByCreator(ctx context.Context, creatorID string) ([]domain.CampaignDraft, error) {
	query := `SELECT id, creator_id, step, payload, created_at, updated_at
		FROM campaign_drafts WHERE creator_id = $1 ORDER BY updated_at DESC`
	rows, err := r.db.Query(ctx, query, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query campaign drafts: %w", err)
	}
	defer rows.Close()

	var drafts []domain.CampaignDraft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, *d)
	}
	return drafts, rows.Err()
}

// UpdateCampaignDraft persists the draft's step and payload.
func (r *PostgresRepository) UpdateCampaignDraft(ctx context.Context, draft *domain.CampaignDraft) error {
	payload, err := json.Marshal(draftPayload{Details: draft.Details, Content: draft.Content, Rewards: draft.Rewards})
	if err != nil {
		return fmt.Errorf("failed to marshal draft payload: %w", err)
	}
	query := `
		UPDATE campaign_drafts
		SET step = $3, payload = $4, updated_at = now()
		WHERE id = $1 AND creator_id = $2`
	tag, err := r.db.Exec(ctx, query, draft.ID, draft.CreatorID, draft.Step, payload)
	if err != nil {
		return fmt.Errorf("failed to update campaign draft: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDraftNotFound
	}
	return nil
}

// DeleteCampaignDraft removes a draft; reports whether a row was deleted.
func (r *PostgresRepository) DeleteCampaignDraft(ctx context.Context, draftID uuid.UUID, creatorID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM campaign_drafts WHERE id = $1 AND creator_id = $2`, draftID, creatorID)
	if err != nil {
		return false, fmt.Errorf("failed to delete campaign draft: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteExpiredDrafts purges drafts untouched since the cutoff.
func (r *PostgresRepository) DeleteExpiredDrafts(ctx context.Context, updatedBefore time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM campaign_drafts WHERE updated_at < $1 AND step <> $2`, updatedBefore, domain.StepSubmitted)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired drafts: %w", err)
	}
	return tag.RowsAffected(), nil
}

// MarkWebhookEventProcessed records a provider event id. The unique
// constraint makes redelivered events report false.
func (r *PostgresRepository) MarkWebhookEventProcessed(ctx context.Context, eventID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO processed_webhook_events (event_id, processed_at)
		VALUES ($1, now())
		ON CONFLICT (event_id) DO NOTHING`, eventID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return false, fmt.Errorf("failed to record webhook event (%s): %w", pgErr.Code, err)
		}
		return false, fmt.Errorf("failed to record webhook event: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// PurgeProcessedWebhookEvents trims the idempotency ledger.
func (r *PostgresRepository) PurgeProcessedWebhookEvents(ctx context.Context, processedBefore time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM processed_webhook_events WHERE processed_at < $1`, processedBefore)
	if err != nil {
		return 0, fmt.Errorf("failed to purge processed webhook events: %w", err)
	}
	return tag.RowsAffected(), nil
}
