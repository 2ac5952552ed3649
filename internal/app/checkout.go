/**
 * @description
 * This file implements the checkout half of the pledge flow: session
 * creation, submission to the payment provider, cancellation, progress
 * reporting, and the application of asynchronous payment outcomes.
 *
 * Key behaviors:
 * - A session starts in `method_selection` and only leaves it through
 *   Submit (to `pending`) or Cancel (to `cancelled`).
 * - Submit requires a payment method; card details travel in the request
 *   body only and are reduced to a masked last-4 before anything is
 *   persisted.
 * - Provider outcomes arrive via webhook events or on-demand polling and
 *   settle the session exactly once; stale or duplicate outcomes are
 *   dropped by the conditional update in the store.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/crowdfundn/pledge-gateway/internal/domain"
	"github.com/crowdfundn/pledge-gateway/internal/store"
	"github.com/crowdfundn/pledge-gateway/pkg/paygateclient"
)

// SubmitCheckoutRequest carries everything the donor provides on the
// payment step. Card fields are in-flight only and are never persisted.
type SubmitCheckoutRequest struct {
	Method  string
	Details domain.PaymentDetails
}

// CheckoutView is a session decorated with its display progress.
type CheckoutView struct {
	Session  *domain.CheckoutSession `json:"session"`
	Progress int                     `json:"progress"`
}

// CreateCheckoutSession opens a new checkout for the given campaign. The
// campaign must exist upstream; the returned session carries the opaque
// completion token the caller must hold on to.
func (s *Service) CreateCheckoutSession(ctx context.Context, campaignID string) (*domain.CheckoutSession, error) {
	campaign, err := s.fundraiser.GetCampaign(ctx, campaignID)
	if err != nil {
		if isUpstreamNotFound(err) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("failed to verify campaign %s: %w", campaignID, err)
	}

	token, err := newSessionToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &domain.CheckoutSession{
		ID:         uuid.New(),
		Token:      token,
		CampaignID: campaign.ID,
		Status:     domain.CheckoutMethodSelection,
		Pledge: domain.PledgeSelection{
			Frequency: domain.FrequencyOnce,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateCheckoutSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	log.Printf("level=info component=checkout msg=\"session created\" session_id=%s campaign_id=%s", session.ID, campaign.ID)
	return session, nil
}

// SubmitCheckout moves a session from method_selection to pending by
// creating a payment intent at the provider. The submission is rejected
// when no payment method has been selected; everything else about the
// pledge is accepted as-is.
func (s *Service) SubmitCheckout(ctx context.Context, sessionID uuid.UUID, req SubmitCheckoutRequest) (*domain.CheckoutSession, error) {
	if req.Method == "" {
		return nil, ErrNoPaymentMethod
	}
	method := domain.PaymentMethod(req.Method)
	if !domain.IsKnownPaymentMethod(method) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPaymentMethod, req.Method)
	}

	session, err := s.repo.FindCheckoutSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.CheckoutMethodSelection {
		return nil, store.ErrCheckoutNotEditable
	}

	campaign, err := s.fundraiser.GetCampaign(ctx, session.CampaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign for submit: %w", err)
	}

	intent, err := s.paygate.CreateIntent(ctx, paygateclient.CreateIntentRequest{
		Method:      string(method),
		Amount:      session.Pledge.AmountMinor,
		Currency:    campaign.CurrencyCode,
		Reference:   session.ID.String(),
		Description: fmt.Sprintf("Pledge to %s", campaign.Title),
		Customer: paygateclient.IntentCustomer{
			FirstName:      req.Details.FirstName,
			LastName:       req.Details.LastName,
			Email:          req.Details.Email,
			Phone:          req.Details.Phone,
			BillingAddress: req.Details.BillingAddress,
			Country:        req.Details.Country,
			CardNumber:     req.Details.CardNumber,
			ExpirationDate: req.Details.ExpirationDate,
			CVV:            req.Details.CVV,
		},
		Metadata: map[string]string{"campaign_id": session.CampaignID},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	params := store.SubmitCheckoutParams{
		Method:          method,
		CardLast4:       domain.MaskCardNumber(req.Details.CardNumber),
		DonorName:       optionalString(donorDisplayName(req.Details)),
		DonorEmail:      optionalString(req.Details.Email),
		GatewayIntentID: intent.ID,
		SubmittedAt:     time.Now().UTC(),
	}
	if err := s.repo.MarkCheckoutSubmitted(ctx, sessionID, params); err != nil {
		return nil, err
	}

	log.Printf("level=info component=checkout msg=\"session submitted\" session_id=%s method=%s intent_id=%s", sessionID, method, intent.ID)

	// Some providers settle synchronously; fold that outcome in right away.
	if intent.Status != paygateclient.StatusPending {
		if err := s.applyIntentOutcome(ctx, sessionID, intent.Status, intent.Reason); err != nil {
			log.Printf("level=warn component=checkout msg=\"failed to apply synchronous intent outcome\" session_id=%s error=%q", sessionID, err)
		}
	}

	return s.repo.FindCheckoutSessionByID(ctx, sessionID)
}

// CancelCheckout abandons a session that has not been submitted yet.
func (s *Service) CancelCheckout(ctx context.Context, sessionID uuid.UUID) (*domain.CheckoutSession, error) {
	if err := s.repo.CancelCheckoutSession(ctx, sessionID); err != nil {
		return nil, err
	}
	log.Printf("level=info component=checkout msg=\"session cancelled\" session_id=%s", sessionID)
	return s.repo.FindCheckoutSessionByID(ctx, sessionID)
}

// GetCheckout returns the session with its current display progress. A
// pending session is refreshed against the provider so a missed webhook
// cannot strand the donor on the spinner.
func (s *Service) GetCheckout(ctx context.Context, sessionID uuid.UUID) (*CheckoutView, error) {
	session, err := s.repo.FindCheckoutSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session = s.refreshIfPending(ctx, session)
	return &CheckoutView{Session: session, Progress: session.ProgressAt(time.Now().UTC())}, nil
}

// CompleteCheckoutByToken resolves a session from its opaque completion
// token. This is the only lookup the post-payment redirect carries; no
// payment data ever appears in the URL.
func (s *Service) CompleteCheckoutByToken(ctx context.Context, token string) (*CheckoutView, error) {
	session, err := s.repo.FindCheckoutSessionByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	session = s.refreshIfPending(ctx, session)
	return &CheckoutView{Session: session, Progress: session.ProgressAt(time.Now().UTC())}, nil
}

// refreshIfPending polls the provider for a pending session and applies
// any terminal outcome it finds. Failures degrade to the stored state.
func (s *Service) refreshIfPending(ctx context.Context, session *domain.CheckoutSession) *domain.CheckoutSession {
	if session.Status != domain.CheckoutPending || session.GatewayIntentID == nil {
		return session
	}
	intent, err := s.paygate.GetIntentStatus(ctx, *session.GatewayIntentID)
	if err != nil {
		log.Printf("level=warn component=checkout msg=\"provider poll failed\" session_id=%s error=%q", session.ID, err)
		return session
	}
	if intent.Status == paygateclient.StatusPending {
		return session
	}
	if err := s.applyIntentOutcome(ctx, session.ID, intent.Status, intent.Reason); err != nil {
		log.Printf("level=warn component=checkout msg=\"failed to apply polled outcome\" session_id=%s error=%q", session.ID, err)
		return session
	}
	refreshed, err := s.repo.FindCheckoutSessionByID(ctx, session.ID)
	if err != nil {
		return session
	}
	return refreshed
}

// ApplyPaymentEvent folds a broker-delivered payment status event into
// the owning checkout session. Events for unknown intents and stale
// replays for already-settled sessions are dropped, not retried.
func (s *Service) ApplyPaymentEvent(ctx context.Context, event domain.PaymentStatusEvent) error {
	if event.Status == domain.IntentStatusPending {
		return nil
	}
	session, err := s.repo.FindCheckoutSessionByIntentID(ctx, event.GatewayIntentID)
	if err != nil {
		if errors.Is(err, store.ErrCheckoutSessionNotFound) {
			log.Printf("level=warn component=checkout msg=\"payment event for unknown intent dropped\" intent_id=%s", event.GatewayIntentID)
			return nil
		}
		return err
	}
	return s.applyIntentOutcome(ctx, session.ID, event.Status, event.Reason)
}

// applyIntentOutcome settles a pending session into succeeded or failed.
// The store's conditional update guards against double settlement: a
// stale outcome is logged and swallowed.
func (s *Service) applyIntentOutcome(ctx context.Context, sessionID uuid.UUID, status string, reason string) error {
	var target domain.CheckoutStatus
	switch status {
	case paygateclient.StatusSucceeded:
		target = domain.CheckoutSucceeded
	case paygateclient.StatusFailed:
		target = domain.CheckoutFailed
	default:
		return fmt.Errorf("unexpected intent status %q for session %s", status, sessionID)
	}

	err := s.repo.SettleCheckoutSession(ctx, sessionID, target, optionalString(reason))
	if errors.Is(err, store.ErrCheckoutNotPending) {
		log.Printf("level=info component=checkout msg=\"stale payment outcome dropped\" session_id=%s status=%s", sessionID, target)
		return nil
	}
	if err != nil {
		return err
	}
	log.Printf("level=info component=checkout msg=\"session settled\" session_id=%s status=%s", sessionID, target)
	return nil
}

func donorDisplayName(details domain.PaymentDetails) string {
	switch {
	case details.FirstName != "" && details.LastName != "":
		return details.FirstName + " " + details.LastName
	case details.FirstName != "":
		return details.FirstName
	default:
		return details.LastName
	}
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
