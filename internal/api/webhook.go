/**
 * @description
 * This file handles incoming webhooks from the payment provider. Its
 * primary responsibility is to securely receive payment intent events,
 * validate their authenticity, deduplicate them against the processed
 * ledger, and publish the normalized event to RabbitMQ for the checkout
 * consumer.
 *
 * Key features:
 * - Security: Validates the HMAC-SHA256 signature of incoming webhooks.
 * - Idempotency: The durable ledger drops redelivered events before
 *   anything is published.
 * - Decoupling: Publishes to a message broker instead of settling
 *   sessions inline, so a slow database never times out the provider.
 */

package api

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/crowdfundn/pledge-gateway/internal/app"
	"github.com/crowdfundn/pledge-gateway/internal/domain"
	"github.com/crowdfundn/pledge-gateway/pkg/rabbitmq"
)

// WebhookLedger records processed provider event ids. The store's
// repository satisfies it.
type WebhookLedger interface {
	MarkWebhookEventProcessed(ctx context.Context, eventID string) (bool, error)
}

// paygateWebhookEvent is the provider's wire shape for payment intent
// notifications.
type paygateWebhookEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	Data      struct {
		IntentID string `json:"intent_id"`
		Reason   string `json:"reason,omitempty"`
	} `json:"data"`
}

// WebhookHandler handles incoming payment provider webhooks.
type WebhookHandler struct {
	producer rabbitmq.Publisher
	ledger   WebhookLedger
	service  *app.Service
	secret   string
}

// NewWebhookHandler creates a new handler for the webhook endpoint.
func NewWebhookHandler(producer rabbitmq.Publisher, ledger WebhookLedger, service *app.Service, secret string) *WebhookHandler {
	return &WebhookHandler{
		producer: producer,
		ledger:   ledger,
		service:  service,
		secret:   secret,
	}
}

// eventRouting maps provider event types to internal routing keys.
var eventRouting = map[string]string{
	"payment_intent.pending":   app.RoutingKeyIntentPending,
	"payment_intent.succeeded": app.RoutingKeyIntentSucceeded,
	"payment_intent.failed":    app.RoutingKeyIntentFailed,
}

// ServeHTTP implements the http.Handler interface.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.service != nil {
		if err := h.service.ConsumeWebhookRateLimit(r.Context(), clientIP(r)); err != nil {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("level=error component=webhook msg=\"failed to read webhook body\" err=%v", err)
		http.Error(w, "Cannot read request body", http.StatusBadRequest)
		return
	}

	if !h.isValidSignature(r.Header.Get("x-paygate-signature"), body) {
		log.Printf("level=warn component=webhook msg=\"invalid webhook signature\" remote=%s", r.RemoteAddr)
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	var event paygateWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("level=error component=webhook msg=\"failed to decode webhook payload\" err=%v", err)
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	if event.ID == "" || event.Data.IntentID == "" {
		log.Printf("level=warn component=webhook msg=\"webhook missing event or intent id\" type=%q", event.Type)
		http.Error(w, "Missing event identifiers", http.StatusBadRequest)
		return
	}

	routingKey, known := eventRouting[event.Type]
	if !known {
		log.Printf("level=info component=webhook msg=\"unhandled webhook event type ignored\" type=%q event_id=%s", event.Type, event.ID)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Webhook received"))
		return
	}

	first, err := h.ledger.MarkWebhookEventProcessed(r.Context(), event.ID)
	if err != nil {
		log.Printf("level=error component=webhook msg=\"idempotency ledger write failed\" event_id=%s err=%v", event.ID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !first {
		log.Printf("level=info component=webhook msg=\"duplicate webhook event ignored\" event_id=%s", event.ID)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Duplicate event ignored"))
		return
	}

	occurredAt := event.CreatedAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	message := domain.PaymentStatusEvent{
		GatewayIntentID: event.Data.IntentID,
		Status:          strings.TrimPrefix(event.Type, "payment_intent."),
		Reason:          event.Data.Reason,
		OccurredAt:      occurredAt,
	}

	if err := h.producer.Publish(r.Context(), rabbitmq.PaymentEventsExchange, routingKey, message); err != nil {
		log.Printf("level=error component=webhook msg=\"failed to publish payment event\" event_id=%s routing_key=%s err=%v", event.ID, routingKey, err)
		http.Error(w, "Internal server error during event processing", http.StatusInternalServerError)
		return
	}

	log.Printf("level=info component=webhook msg=\"payment event published\" event_id=%s routing_key=%s intent_id=%s", event.ID, routingKey, event.Data.IntentID)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Webhook received"))
}

// isValidSignature checks the HMAC-SHA256 signature over the raw body.
// Both hex and base64 encodings of the digest are accepted.
func (h *WebhookHandler) isValidSignature(signatureHeader string, body []byte) bool {
	if h.secret == "" {
		log.Printf("level=warn component=webhook msg=\"PAYGATE_WEBHOOK_SECRET is not set, skipping signature validation\"")
		return true
	}

	header := strings.TrimSpace(signatureHeader)
	if header == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	expected := mac.Sum(nil)

	if provided, err := hex.DecodeString(header); err == nil && hmac.Equal(provided, expected) {
		return true
	}
	if provided, err := base64.StdEncoding.DecodeString(header); err == nil && hmac.Equal(provided, expected) {
		return true
	}
	return false
}
