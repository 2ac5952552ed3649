/**
 * @description
 * This file implements the pledge-selection half of the checkout flow:
 * choosing a reward tier, editing the pledge amount, and picking a
 * billing frequency. All three operate on a session that is still in
 * method_selection; a submitted session is no longer editable.
 *
 * Key behaviors:
 * - Selecting a reward seeds the amount to the tier minimum; the donor
 *   can then lower it freely, which only raises a non-blocking warning.
 * - An unparseable or negative amount keeps the prior value and reports
 *   a field error rather than corrupting the pledge.
 * - Every billing frequency is advertised but only one-time pledges can
 *   actually be chosen.
 */

package app

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/crowdfundn/pledge-gateway/internal/domain"
	"github.com/crowdfundn/pledge-gateway/internal/store"
)

// PledgeResult is the outcome of a pledge edit: the session after the
// edit, any per-field validation errors, and an optional non-blocking
// warning.
type PledgeResult struct {
	Session *domain.CheckoutSession `json:"session"`
	Errors  domain.FieldErrors      `json:"errors,omitempty"`
	Warning string                  `json:"warning,omitempty"`
}

// SelectReward picks a reward tier for the session and seeds the pledge
// amount to the tier minimum. An empty rewardID deselects the tier and
// leaves the amount untouched.
func (s *Service) SelectReward(ctx context.Context, sessionID uuid.UUID, rewardID string) (*PledgeResult, error) {
	session, err := s.editablePledgeSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	pledge := session.Pledge
	if rewardID == "" {
		pledge.RewardID = ""
	} else {
		campaign, err := s.GetCampaign(ctx, session.CampaignID)
		if err != nil {
			return nil, err
		}
		reward := findReward(campaign.Rewards, rewardID)
		if reward == nil {
			return nil, ErrRewardNotFound
		}
		pledge.RewardID = reward.ID
		pledge.AmountMinor = reward.Amount
		pledge.AmountRaw = formatAmountRaw(reward.Amount)
	}

	if err := s.repo.UpdateCheckoutPledge(ctx, sessionID, pledge); err != nil {
		return nil, err
	}
	session.Pledge = pledge
	return &PledgeResult{Session: session}, nil
}

// SetPledgeAmount replaces the pledge amount with the donor's free-form
// input. Input that does not parse to a non-negative number keeps the
// prior amount and reports a field error.
func (s *Service) SetPledgeAmount(ctx context.Context, sessionID uuid.UUID, raw string) (*PledgeResult, error) {
	session, err := s.editablePledgeSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	minor, ok := domain.ParsePledgeAmount(raw)
	if !ok {
		return &PledgeResult{
			Session: session,
			Errors:  domain.FieldErrors{"amount": "Please enter a valid amount"},
		}, nil
	}

	pledge := session.Pledge
	pledge.AmountRaw = raw
	pledge.AmountMinor = minor
	if err := s.repo.UpdateCheckoutPledge(ctx, sessionID, pledge); err != nil {
		return nil, err
	}
	session.Pledge = pledge

	result := &PledgeResult{Session: session}
	if warning, err := s.belowRewardMinimumWarning(ctx, session); err == nil && warning != "" {
		result.Warning = warning
	}
	return result, nil
}

// SetPledgeFrequency picks a billing frequency. Only one-time pledges
// are enabled; the recurring frequencies are advertised but rejected
// with a field error until billing support lands.
func (s *Service) SetPledgeFrequency(ctx context.Context, sessionID uuid.UUID, frequency string) (*PledgeResult, error) {
	session, err := s.editablePledgeSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	freq := domain.BillingFrequency(frequency)
	if !domain.IsKnownFrequency(freq) {
		return &PledgeResult{
			Session: session,
			Errors:  domain.FieldErrors{"billing_frequency": "Unknown billing frequency"},
		}, nil
	}
	if freq != domain.FrequencyOnce {
		return &PledgeResult{
			Session: session,
			Errors:  domain.FieldErrors{"billing_frequency": "This billing frequency is not available yet"},
		}, nil
	}

	pledge := session.Pledge
	pledge.Frequency = freq
	if err := s.repo.UpdateCheckoutPledge(ctx, sessionID, pledge); err != nil {
		return nil, err
	}
	session.Pledge = pledge
	return &PledgeResult{Session: session}, nil
}

// PaymentOptions lists the frequency catalog and the accepted payment
// methods for rendering the checkout form.
func (s *Service) PaymentOptions() ([]domain.FrequencyOption, []domain.PaymentMethod) {
	return domain.FrequencyCatalog(), domain.PaymentMethods()
}

func (s *Service) editablePledgeSession(ctx context.Context, sessionID uuid.UUID) (*domain.CheckoutSession, error) {
	session, err := s.repo.FindCheckoutSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.CheckoutMethodSelection {
		return nil, store.ErrCheckoutNotEditable
	}
	return session, nil
}

func (s *Service) belowRewardMinimumWarning(ctx context.Context, session *domain.CheckoutSession) (string, error) {
	if session.Pledge.RewardID == "" {
		return "", nil
	}
	campaign, err := s.GetCampaign(ctx, session.CampaignID)
	if err != nil {
		return "", err
	}
	reward := findReward(campaign.Rewards, session.Pledge.RewardID)
	if reward == nil || session.Pledge.AmountMinor >= reward.Amount {
		return "", nil
	}
	return fmt.Sprintf("Your pledge is below the %s minimum of %s",
		reward.Title, domain.FormatMinor(campaign.CurrencySymbol, reward.Amount)), nil
}

func findReward(rewards []domain.Reward, rewardID string) *domain.Reward {
	for i := range rewards {
		if rewards[i].ID == rewardID {
			return &rewards[i]
		}
	}
	return nil
}

// formatAmountRaw renders a minor-unit amount back into the free-form
// input representation, dropping a trailing ".00".
func formatAmountRaw(minor int64) string {
	if minor%100 == 0 {
		return strconv.FormatInt(minor/100, 10)
	}
	return fmt.Sprintf("%d.%02d", minor/100, minor%100)
}
