/**
 * @description
 * This file models the checkout session: the gateway-owned state machine
 * that carries a backer from opening the payment modal to a terminal,
 * provider-confirmed outcome.
 *
 * States: method_selection -> pending -> succeeded | failed | timed_out,
 * plus cancelled (reachable from method_selection only). Progress is a
 * monotonic projection of this state for the client's progress bar; it is
 * never driven by a local timer alone and reaches 100 only on success.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// CheckoutStatus is the lifecycle state of a checkout session.
type CheckoutStatus string

const (
	CheckoutMethodSelection CheckoutStatus = "method_selection"
	CheckoutPending         CheckoutStatus = "pending"
	CheckoutSucceeded       CheckoutStatus = "succeeded"
	CheckoutFailed          CheckoutStatus = "failed"
	CheckoutTimedOut        CheckoutStatus = "timed_out"
	CheckoutCancelled       CheckoutStatus = "cancelled"
)

// IsTerminal reports whether s admits no further transitions.
func (s CheckoutStatus) IsTerminal() bool {
	switch s {
	case CheckoutSucceeded, CheckoutFailed, CheckoutTimedOut, CheckoutCancelled:
		return true
	}
	return false
}

// CheckoutSession is the durable record of one pledge/checkout flow.
// Token is the opaque capability handed to the browser for the completion
// route; it is the only thing that ever appears in a redirect URL.
type CheckoutSession struct {
	ID              uuid.UUID       `json:"id"`
	Token           string          `json:"-"`
	CampaignID      string          `json:"campaign_id"`
	DonorName       *string         `json:"donor_name,omitempty"`
	DonorEmail      *string         `json:"donor_email,omitempty"`
	Pledge          PledgeSelection `json:"pledge"`
	Method          *PaymentMethod  `json:"method,omitempty"`
	CardLast4       string          `json:"card_last4,omitempty"`
	Status          CheckoutStatus  `json:"status"`
	FailureReason   *string         `json:"failure_reason,omitempty"`
	GatewayIntentID *string         `json:"gateway_intent_id,omitempty"`
	SubmittedAt     *time.Time      `json:"submitted_at,omitempty"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// pendingProgressTick is the interval at which the pending-state progress
// projection advances by one step.
const pendingProgressTick = 3 * time.Second

// pendingProgressCap is the highest progress reported while the provider
// outcome is still unknown.
const pendingProgressCap = 90

// ProgressAt computes the 0-100 progress value the client should render at
// the given instant. The value is monotonic over a session's lifetime:
// 0 during method selection, a time-ramped value capped at 90 while the
// provider is processing, and exactly 100 only once the session succeeds.
// Failed and timed-out sessions hold at the cap rather than resetting.
func (s *CheckoutSession) ProgressAt(now time.Time) int {
	switch s.Status {
	case CheckoutMethodSelection, CheckoutCancelled:
		return 0
	case CheckoutSucceeded:
		return 100
	}

	if s.SubmittedAt == nil {
		return 0
	}
	if s.Status == CheckoutFailed || s.Status == CheckoutTimedOut {
		return pendingProgressCap
	}

	elapsed := now.Sub(*s.SubmittedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	progress := 10 + int(elapsed/pendingProgressTick)*10
	if progress > pendingProgressCap {
		progress = pendingProgressCap
	}
	return progress
}

// DisplayDonorName resolves the name shown publicly for this session's
// eventual donation record.
func (s *CheckoutSession) DisplayDonorName() string {
	if s.DonorName == nil || *s.DonorName == "" {
		return "Anonymous"
	}
	return *s.DonorName
}
