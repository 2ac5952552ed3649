package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/crowdfundn/pledge-gateway/internal/domain"
	"github.com/crowdfundn/pledge-gateway/internal/store"
)

func TestHandleMessage_AcksMalformedPayload(t *testing.T) {
	consumer := NewPaymentStatusConsumer(newTestService(&stubRepo{}, &stubFundraiser{}, &stubPaygate{}))

	if !consumer.HandleMessage([]byte("not json")) {
		t.Fatal("malformed payloads must be acked, not requeued")
	}
}

func TestHandleMessage_AcksEventWithoutIntentID(t *testing.T) {
	consumer := NewPaymentStatusConsumer(newTestService(&stubRepo{}, &stubFundraiser{}, &stubPaygate{}))

	body, _ := json.Marshal(domain.PaymentStatusEvent{Status: domain.IntentStatusSucceeded})
	if !consumer.HandleMessage(body) {
		t.Fatal("events without an intent id must be acked, not requeued")
	}
}

func TestHandleMessage_SettlesTheOwningSession(t *testing.T) {
	session := methodSelectionSession("camp-1")
	session.Status = domain.CheckoutPending

	var settledTo domain.CheckoutStatus
	var settledReason *string
	repo := &stubRepo{
		findByIntentFn: func(_ context.Context, _ string) (*domain.CheckoutSession, error) {
			return session, nil
		},
		settleFn: func(_ context.Context, _ uuid.UUID, status domain.CheckoutStatus, failureReason *string) error {
			settledTo = status
			settledReason = failureReason
			return nil
		},
	}
	consumer := NewPaymentStatusConsumer(newTestService(repo, &stubFundraiser{}, &stubPaygate{}))

	body, _ := json.Marshal(domain.PaymentStatusEvent{
		GatewayIntentID: "pi_1",
		Status:          domain.IntentStatusFailed,
		Reason:          "card declined",
		OccurredAt:      time.Now().UTC(),
	})
	if !consumer.HandleMessage(body) {
		t.Fatal("a successfully applied event must be acked")
	}
	if settledTo != domain.CheckoutFailed {
		t.Fatalf("expected settle to failed, got %s", settledTo)
	}
	if settledReason == nil || *settledReason != "card declined" {
		t.Fatalf("expected the decline reason to be recorded, got %v", settledReason)
	}
}

func TestHandleMessage_RequeuesOnTransientFailure(t *testing.T) {
	repo := &stubRepo{
		findByIntentFn: func(_ context.Context, _ string) (*domain.CheckoutSession, error) {
			return nil, errors.New("database unavailable")
		},
	}
	consumer := NewPaymentStatusConsumer(newTestService(repo, &stubFundraiser{}, &stubPaygate{}))

	body, _ := json.Marshal(domain.PaymentStatusEvent{
		GatewayIntentID: "pi_1",
		Status:          domain.IntentStatusSucceeded,
	})
	if consumer.HandleMessage(body) {
		t.Fatal("a transient failure must be nacked for redelivery")
	}
}

func TestHandleMessage_AcksStaleReplay(t *testing.T) {
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
	consumer := NewPaymentStatusConsumer(newTestService(repo, &stubFundraiser{}, &stubPaygate{}))

	body, _ := json.Marshal(domain.PaymentStatusEvent{
		GatewayIntentID: "pi_1",
		Status:          domain.IntentStatusFailed,
	})
	if !consumer.HandleMessage(body) {
		t.Fatal("a stale replay must be acked once dropped")
	}
}
