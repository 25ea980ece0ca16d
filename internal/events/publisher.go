// Package events publishes payment reconciliation events for downstream
// consumers (notifications, analytics).
package events

import (
	"context"

	"github.com/iamciscoo/tisco-payments/internal/models"
	"github.com/google/uuid"
)

// PaymentEvent is the message emitted after a state-changing reconciliation.
type PaymentEvent struct {
	PaymentID            uuid.UUID               `json:"payment_id"`
	OrderID              uuid.UUID               `json:"order_id"`
	UserID               uuid.UUID               `json:"user_id"`
	EventType            models.PaymentEventType `json:"event_type"`
	GatewayTransactionID string                  `json:"gateway_transaction_id,omitempty"`
}

// Publisher emits payment events. Publishing is fire-and-forget from the
// webhook pipeline's point of view: failures are logged, never surfaced to
// the gateway.
type Publisher interface {
	Publish(ctx context.Context, event PaymentEvent) error
}

// Noop is the Publisher used when no broker is configured.
type Noop struct{}

// Publish does nothing.
func (Noop) Publish(context.Context, PaymentEvent) error { return nil }
