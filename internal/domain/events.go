/**
 * @description
 * This file defines the internal event payloads carried over RabbitMQ
 * between the webhook intake and the checkout consumer.
 */

package domain

import "time"

// Payment intent statuses as normalized from provider webhooks.
const (
	IntentStatusPending   = "pending"
	IntentStatusSucceeded = "succeeded"
	IntentStatusFailed    = "failed"
)

// PaymentStatusEvent is the normalized form of a provider payment event.
// It is published by the webhook intake and consumed by the checkout
// status consumer.
type PaymentStatusEvent struct {
	GatewayIntentID string    `json:"gateway_intent_id"`
	Status          string    `json:"status"`
	Reason          string    `json:"reason,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}
