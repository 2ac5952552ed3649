/**
 * @description
 * This file contains the consumer logic for payment status events
 * published by the webhook intake. A single queue is bound to the
 * payment.intent.* routing keys; each delivery is decoded and folded
 * into the owning checkout session.
 */

package app

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/crowdfundn/pledge-gateway/internal/domain"
	"github.com/crowdfundn/pledge-gateway/pkg/rabbitmq"
)

// Routing keys published to the payment events exchange.
const (
	RoutingKeyIntentPending   = "payment.intent.pending"
	RoutingKeyIntentSucceeded = "payment.intent.succeeded"
	RoutingKeyIntentFailed    = "payment.intent.failed"
)

// consumerOpTimeout bounds the handling of one delivery.
const consumerOpTimeout = 30 * time.Second

// PaymentStatusConsumer consumes payment status events and settles
// checkout sessions.
type PaymentStatusConsumer struct {
	service *Service
}

// NewPaymentStatusConsumer creates a consumer bound to the service.
func NewPaymentStatusConsumer(service *Service) *PaymentStatusConsumer {
	return &PaymentStatusConsumer{service: service}
}

// Bindings returns the routing-key handler map for the payment events
// queue. Every intent status shares one handler; the service decides
// what each status means for the session.
func (c *PaymentStatusConsumer) Bindings() map[string]func([]byte) bool {
	return map[string]func([]byte) bool{
		RoutingKeyIntentPending:   c.HandleMessage,
		RoutingKeyIntentSucceeded: c.HandleMessage,
		RoutingKeyIntentFailed:    c.HandleMessage,
	}
}

// Start declares the queue bindings and begins consuming deliveries in
// the background.
func (c *PaymentStatusConsumer) Start(consumer *rabbitmq.Consumer, queueName string) error {
	return consumer.ConsumeWithBindings(rabbitmq.PaymentEventsExchange, queueName, c.Bindings())
}

// HandleMessage processes one delivery. Returns true to ack. Malformed
// payloads are acked and dropped; transient store failures are nacked
// for redelivery.
func (c *PaymentStatusConsumer) HandleMessage(body []byte) bool {
	var event domain.PaymentStatusEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("level=error component=payment_consumer msg=\"failed to decode payment event, dropping\" error=%q", err)
		return true
	}
	if event.GatewayIntentID == "" {
		log.Printf("level=warn component=payment_consumer msg=\"payment event without intent id dropped\"")
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), consumerOpTimeout)
	defer cancel()

	if err := c.service.ApplyPaymentEvent(ctx, event); err != nil {
		log.Printf("level=error component=payment_consumer msg=\"failed to apply payment event\" intent_id=%s error=%q", event.GatewayIntentID, err)
		return false
	}
	return true
}
