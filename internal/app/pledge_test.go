package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/crowdfundn/pledge-gateway/internal/domain"
	"github.com/crowdfundn/pledge-gateway/internal/store"
	"github.com/crowdfundn/pledge-gateway/pkg/fundraiserclient"
)

func pledgeTestService(session *domain.CheckoutSession, onUpdate func(domain.PledgeSelection)) *Service {
	repo := &stubRepo{
		findByIDFn: func(_ context.Context, _ uuid.UUID) (*domain.CheckoutSession, error) {
			return session, nil
		},
		updatePledgeFn: func(_ context.Context, _ uuid.UUID, pledge domain.PledgeSelection) error {
			if onUpdate != nil {
				onUpdate(pledge)
			}
			return nil
		},
	}
	fundraiser := &stubFundraiser{
		getCampaignFn: func(_ context.Context, campaignID string) (*fundraiserclient.Campaign, error) {
			return testCampaign(campaignID), nil
		},
	}
	return newTestService(repo, fundraiser, &stubPaygate{})
}

func TestSelectReward_SeedsAmountFromTierMinimum(t *testing.T) {
	session := methodSelectionSession("camp-1")
	var persisted domain.PledgeSelection
	service := pledgeTestService(session, func(p domain.PledgeSelection) { persisted = p })

	result, err := service.SelectReward(context.Background(), session.ID, "rw-2")
	if err != nil {
		t.Fatalf("SelectReward returned error: %v", err)
	}
	if result.Session.Pledge.RewardID != "rw-2" {
		t.Fatalf("expected reward rw-2, got %q", result.Session.Pledge.RewardID)
	}
	if result.Session.Pledge.AmountMinor != 10000 || result.Session.Pledge.AmountRaw != "100" {
		t.Fatalf("expected the amount seeded to the tier minimum, got %+v", result.Session.Pledge)
	}
	if persisted.RewardID != "rw-2" {
		t.Fatalf("expected the selection to be persisted, got %+v", persisted)
	}
}

func TestSelectReward_UnknownTier(t *testing.T) {
	session := methodSelectionSession("camp-1")
	service := pledgeTestService(session, nil)

	_, err := service.SelectReward(context.Background(), session.ID, "rw-404")
	if !errors.Is(err, ErrRewardNotFound) {
		t.Fatalf("expected ErrRewardNotFound, got %v", err)
	}
}

func TestSelectReward_EmptyIDDeselectsWithoutTouchingAmount(t *testing.T) {
	session := methodSelectionSession("camp-1")
	session.Pledge.RewardID = "rw-1"
	var persisted domain.PledgeSelection
	service := pledgeTestService(session, func(p domain.PledgeSelection) { persisted = p })

	result, err := service.SelectReward(context.Background(), session.ID, "")
	if err != nil {
		t.Fatalf("SelectReward returned error: %v", err)
	}
	if result.Session.Pledge.RewardID != "" {
		t.Fatal("expected the reward to be deselected")
	}
	if persisted.AmountMinor != 2500 {
		t.Fatalf("deselection must not change the amount, got %d", persisted.AmountMinor)
	}
}

func TestSetPledgeAmount_InvalidInputKeepsPriorValue(t *testing.T) {
	session := methodSelectionSession("camp-1")
	service := pledgeTestService(session, func(domain.PledgeSelection) {
		t.Fatal("an invalid amount must not be persisted")
	})

	result, err := service.SetPledgeAmount(context.Background(), session.ID, "abc")
	if err != nil {
		t.Fatalf("SetPledgeAmount returned error: %v", err)
	}
	if msg := result.Errors["amount"]; msg != "Please enter a valid amount" {
		t.Fatalf("expected the amount field error, got %v", result.Errors)
	}
	if result.Session.Pledge.AmountMinor != 2500 {
		t.Fatalf("expected the prior amount to survive, got %d", result.Session.Pledge.AmountMinor)
	}
}

func TestSetPledgeAmount_BelowTierMinimumWarnsWithoutBlocking(t *testing.T) {
	session := methodSelectionSession("camp-1")
	session.Pledge.RewardID = "rw-2"
	var persisted domain.PledgeSelection
	service := pledgeTestService(session, func(p domain.PledgeSelection) { persisted = p })

	result, err := service.SetPledgeAmount(context.Background(), session.ID, "50")
	if err != nil {
		t.Fatalf("SetPledgeAmount returned error: %v", err)
	}
	if result.Errors.Has() {
		t.Fatalf("a low amount must not be a validation error, got %v", result.Errors)
	}
	if persisted.AmountMinor != 5000 {
		t.Fatalf("expected the lower amount to be persisted, got %d", persisted.AmountMinor)
	}
	if result.Warning != "Your pledge is below the Founding Backer minimum of $100.00" {
		t.Fatalf("unexpected warning: %q", result.Warning)
	}
}

func TestSetPledgeFrequency_OnlyOneTimeIsAccepted(t *testing.T) {
	session := methodSelectionSession("camp-1")
	var persisted *domain.PledgeSelection
	service := pledgeTestService(session, func(p domain.PledgeSelection) { persisted = &p })

	result, err := service.SetPledgeFrequency(context.Background(), session.ID, "monthly")
	if err != nil {
		t.Fatalf("SetPledgeFrequency returned error: %v", err)
	}
	if msg := result.Errors["billing_frequency"]; msg != "This billing frequency is not available yet" {
		t.Fatalf("expected the disabled-frequency error, got %v", result.Errors)
	}
	if persisted != nil {
		t.Fatal("a rejected frequency must not be persisted")
	}

	result, err = service.SetPledgeFrequency(context.Background(), session.ID, "weekly-ish")
	if err != nil {
		t.Fatalf("SetPledgeFrequency returned error: %v", err)
	}
	if msg := result.Errors["billing_frequency"]; msg != "Unknown billing frequency" {
		t.Fatalf("expected the unknown-frequency error, got %v", result.Errors)
	}

	result, err = service.SetPledgeFrequency(context.Background(), session.ID, string(domain.FrequencyOnce))
	if err != nil {
		t.Fatalf("SetPledgeFrequency returned error: %v", err)
	}
	if result.Errors.Has() {
		t.Fatalf("one-time pledges must be accepted, got %v", result.Errors)
	}
	if persisted == nil || persisted.Frequency != domain.FrequencyOnce {
		t.Fatalf("expected the one-time frequency to be persisted, got %+v", persisted)
	}
}

func TestPledgeEdits_RejectSubmittedSession(t *testing.T) {
	session := methodSelectionSession("camp-1")
	session.Status = domain.CheckoutPending
	service := pledgeTestService(session, nil)

	if _, err := service.SetPledgeAmount(context.Background(), session.ID, "10"); !errors.Is(err, store.ErrCheckoutNotEditable) {
		t.Fatalf("expected ErrCheckoutNotEditable from SetPledgeAmount, got %v", err)
	}
	if _, err := service.SelectReward(context.Background(), session.ID, "rw-1"); !errors.Is(err, store.ErrCheckoutNotEditable) {
		t.Fatalf("expected ErrCheckoutNotEditable from SelectReward, got %v", err)
	}
}
