package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/crowdfundn/pledge-gateway/internal/domain"
	"github.com/crowdfundn/pledge-gateway/internal/store"
	"github.com/crowdfundn/pledge-gateway/pkg/fundraiserclient"
	"github.com/crowdfundn/pledge-gateway/pkg/paygateclient"
)

func TestSubmitCheckout_RejectsMissingMethodBeforeAnySideEffect(t *testing.T) {
	// No stub methods are wired: any repo or provider call would panic or
	// surface as an unexpected-call error.
	service := newTestService(&stubRepo{}, &stubFundraiser{}, &stubPaygate{})

	_, err := service.SubmitCheckout(context.Background(), uuid.New(), SubmitCheckoutRequest{})
	if !errors.Is(err, ErrNoPaymentMethod) {
		t.Fatalf("expected ErrNoPaymentMethod, got %v", err)
	}
}

func TestSubmitCheckout_RejectsUnknownMethod(t *testing.T) {
	service := newTestService(&stubRepo{}, &stubFundraiser{}, &stubPaygate{})

	_, err := service.SubmitCheckout(context.Background(), uuid.New(), SubmitCheckoutRequest{Method: "wire_transfer"})
	if !errors.Is(err, ErrUnknownPaymentMethod) {
		t.Fatalf("expected ErrUnknownPaymentMethod, got %v", err)
	}
}

func TestSubmitCheckout_PersistsOnlyMaskedCardData(t *testing.T) {
	session := methodSelectionSession("camp-1")
	var submitted *store.SubmitCheckoutParams

	repo := &stubRepo{
		findByIDFn: func(_ context.Context, sessionID uuid.UUID) (*domain.CheckoutSession, error) {
			if sessionID != session.ID {
				t.Fatalf("unexpected session id %s", sessionID)
			}
			return session, nil
		},
		markSubmittedFn: func(_ context.Context, _ uuid.UUID, params store.SubmitCheckoutParams) error {
			submitted = &params
			return nil
		},
	}
	fundraiser := &stubFundraiser{
		getCampaignFn: func(_ context.Context, campaignID string) (*fundraiserclient.Campaign, error) {
			return testCampaign(campaignID), nil
		},
	}
	paygate := &stubPaygate{
		createIntentFn: func(_ context.Context, req paygateclient.CreateIntentRequest) (*paygateclient.IntentResponse, error) {
			if req.Amount != 2500 || req.Currency != "USD" {
				t.Fatalf("unexpected intent request: %+v", req)
			}
			if req.Customer.CardNumber != "4242 4242 4242 4242" {
				t.Fatalf("card number must reach the provider untouched, got %q", req.Customer.CardNumber)
			}
			return &paygateclient.IntentResponse{ID: "pi_1", Status: paygateclient.StatusPending}, nil
		},
	}
	service := newTestService(repo, fundraiser, paygate)

	_, err := service.SubmitCheckout(context.Background(), session.ID, SubmitCheckoutRequest{
		Method: string(domain.MethodCreditCard),
		Details: domain.PaymentDetails{
			FirstName:      "Ada",
			LastName:       "Okafor",
			Email:          "ada@example.com",
			CardNumber:     "4242 4242 4242 4242",
			ExpirationDate: "12/28",
			CVV:            "123",
		},
	})
	if err != nil {
		t.Fatalf("SubmitCheckout returned error: %v", err)
	}

	if submitted == nil {
		t.Fatal("expected the session to be marked submitted")
	}
	if submitted.CardLast4 != "**** 4242" {
		t.Fatalf("expected the masked card reference, got %q", submitted.CardLast4)
	}
	if strings.Contains(submitted.CardLast4, "4242 4242") {
		t.Fatal("full card number must never be persisted")
	}
	if submitted.DonorName == nil || *submitted.DonorName != "Ada Okafor" {
		t.Fatalf("unexpected donor name: %v", submitted.DonorName)
	}
	if submitted.GatewayIntentID != "pi_1" {
		t.Fatalf("expected the provider intent id to be recorded, got %q", submitted.GatewayIntentID)
	}
}

func TestSubmitCheckout_RejectsAlreadySubmittedSession(t *testing.T) {
	session := methodSelectionSession("camp-1")
	session.Status = domain.CheckoutPending

	repo := &stubRepo{
		findByIDFn: func(_ context.Context, _ uuid.UUID) (*domain.CheckoutSession, error) {
			return session, nil
		},
	}
	service := newTestService(repo, &stubFundraiser{}, &stubPaygate{})

	_, err := service.SubmitCheckout(context.Background(), session.ID, SubmitCheckoutRequest{
		Method: string(domain.MethodCreditCard),
	})
	if !errors.Is(err, store.ErrCheckoutNotEditable) {
		t.Fatalf("expected ErrCheckoutNotEditable, got %v", err)
	}
}

func TestApplyPaymentEvent_IgnoresPendingReplays(t *testing.T) {
	service := newTestService(&stubRepo{}, &stubFundraiser{}, &stubPaygate{})

	err := service.ApplyPaymentEvent(context.Background(), domain.PaymentStatusEvent{
		GatewayIntentID: "pi_1",
		Status:          domain.IntentStatusPending,
	})
	if err != nil {
		t.Fatalf("pending events must be a no-op, got %v", err)
	}
}

func TestApplyPaymentEvent_DropsUnknownIntent(t *testing.T) {
	repo := &stubRepo{
		findByIntentFn: func(_ context.Context, _ string) (*domain.CheckoutSession, error) {
			return nil, store.ErrCheckoutSessionNotFound
		},
	}
	service := newTestService(repo, &stubFundraiser{}, &stubPaygate{})

	err := service.ApplyPaymentEvent(context.Background(), domain.PaymentStatusEvent{
		GatewayIntentID: "pi_ghost",
		Status:          domain.IntentStatusSucceeded,
	})
	if err != nil {
		t.Fatalf("events for unknown intents must be dropped, got %v", err)
	}
}

func TestApplyPaymentEvent_SettlesPendingSession(t *testing.T) {
	session := methodSelectionSession("camp-1")
	session.Status = domain.CheckoutPending

	var settledTo domain.CheckoutStatus
	repo := &stubRepo{
		findByIntentFn: func(_ context.Context, intentID string) (*domain.CheckoutSession, error) {
			if intentID != "pi_1" {
				t.Fatalf("unexpected intent id %s", intentID)
			}
			return session, nil
		},
		settleFn: func(_ context.Context, sessionID uuid.UUID, status domain.CheckoutStatus, failureReason *string) error {
			if sessionID != session.ID {
				t.Fatalf("unexpected session id %s", sessionID)
			}
			settledTo = status
			if failureReason != nil {
				t.Fatalf("unexpected failure reason %q", *failureReason)
			}
			return nil
		},
	}
	service := newTestService(repo, &stubFundraiser{}, &stubPaygate{})

	err := service.ApplyPaymentEvent(context.Background(), domain.PaymentStatusEvent{
		GatewayIntentID: "pi_1",
		Status:          domain.IntentStatusSucceeded,
	})
	if err != nil {
		t.Fatalf("ApplyPaymentEvent returned error: %v", err)
	}
	if settledTo != domain.CheckoutSucceeded {
		t.Fatalf("expected settle to succeeded, got %s", settledTo)
	}
}

func TestApplyPaymentEvent_SwallowsStaleOutcome(t *testing.T) {
	session := methodSelectionSession("camp-1")
	session.Status = domain.CheckoutSucceeded

	repo := &stubRepo{
		findByIntentFn: func(_ context.Context, _ string) (*domain.CheckoutSession, error) {
			return session, nil
		},
		settleFn: func(_ context.Context, _ uuid.UUID, _ domain.CheckoutStatus, _ *string) error {
			return store.ErrCheckoutNotPending
		},
	}
	service := newTestService(repo, &stubFundraiser{}, &stubPaygate{})

	err := service.ApplyPaymentEvent(context.Background(), domain.PaymentStatusEvent{
		GatewayIntentID: "pi_1",
		Status:          domain.IntentStatusFailed,
		Reason:          "card declined",
	})
	if err != nil {
		t.Fatalf("a stale outcome must be dropped silently, got %v", err)
	}
}

func TestGetCheckout_RefreshesPendingSessionFromProvider(t *testing.T) {
	intentID := "pi_1"
	session := methodSelectionSession("camp-1")
	session.Status = domain.CheckoutPending
	session.GatewayIntentID = &intentID

	settled := false
	repo := &stubRepo{
		findByIDFn: func(_ context.Context, _ uuid.UUID) (*domain.CheckoutSession, error) {
			if settled {
				refreshed := *session
				refreshed.Status = domain.CheckoutSucceeded
				return &refreshed, nil
			}
			return session, nil
		},
		settleFn: func(_ context.Context, _ uuid.UUID, status domain.CheckoutStatus, _ *string) error {
			if status != domain.CheckoutSucceeded {
				t.Fatalf("expected settle to succeeded, got %s", status)
			}
			settled = true
			return nil
		},
	}
	paygate := &stubPaygate{
		getStatusFn: func(_ context.Context, id string) (*paygateclient.IntentResponse, error) {
			if id != intentID {
				t.Fatalf("unexpected intent id %s", id)
			}
			return &paygateclient.IntentResponse{ID: id, Status: paygateclient.StatusSucceeded}, nil
		},
	}
	service := newTestService(repo, &stubFundraiser{}, paygate)

	view, err := service.GetCheckout(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("GetCheckout returned error: %v", err)
	}
	if view.Session.Status != domain.CheckoutSucceeded {
		t.Fatalf("expected the polled outcome to be applied, got %s", view.Session.Status)
	}
	if view.Progress != 100 {
		t.Fatalf("expected progress 100 after success, got %d", view.Progress)
	}
}

func TestGetCheckout_DegradesToStoredStateWhenPollFails(t *testing.T) {
	intentID := "pi_1"
	session := methodSelectionSession("camp-1")
	session.Status = domain.CheckoutPending
	session.GatewayIntentID = &intentID

	repo := &stubRepo{
		findByIDFn: func(_ context.Context, _ uuid.UUID) (*domain.CheckoutSession, error) {
			return session, nil
		},
	}
	paygate := &stubPaygate{
		getStatusFn: func(_ context.Context, _ string) (*paygateclient.IntentResponse, error) {
			return nil, errors.New("provider unavailable")
		},
	}
	service := newTestService(repo, &stubFundraiser{}, paygate)

	view, err := service.GetCheckout(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("GetCheckout returned error: %v", err)
	}
	if view.Session.Status != domain.CheckoutPending {
		t.Fatalf("expected the stored state to survive a failed poll, got %s", view.Session.Status)
	}
}

func TestCancelCheckout_SurfacesNotCancellable(t *testing.T) {
	repo := &stubRepo{
		cancelFn: func(_ context.Context, _ uuid.UUID) error {
			return store.ErrSessionNotCancellable
		},
	}
	service := newTestService(repo, &stubFundraiser{}, &stubPaygate{})

	_, err := service.CancelCheckout(context.Background(), uuid.New())
	if !errors.Is(err, store.ErrSessionNotCancellable) {
		t.Fatalf("expected ErrSessionNotCancellable, got %v", err)
	}
}
