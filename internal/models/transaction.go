package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TransactionStatus represents the lifecycle state of a payment transaction
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

// Terminal reports whether the status is final for reconciliation purposes.
// Refund flows are handled outside this service.
func (s TransactionStatus) Terminal() bool {
	switch s {
	case TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusCancelled:
		return true
	}
	return false
}

// PaymentTransaction represents a single payment attempt against an order.
//
// TransactionReference is generated by the checkout flow and sent to the
// gateway; GatewayTransactionID is assigned by the gateway and learned from
// its callbacks. At least one of the two is always set.
type PaymentTransaction struct {
	CreatedAt            time.Time         `db:"created_at"`
	UpdatedAt            time.Time         `db:"updated_at"`
	CompletedAt          *time.Time        `db:"completed_at"`
	FailedAt             *time.Time        `db:"failed_at"`
	CancelledAt          *time.Time        `db:"cancelled_at"`
	GatewayTransactionID *string           `db:"gateway_transaction_id"`
	FailureReason        *string           `db:"failure_reason"`
	WebhookData          json.RawMessage   `db:"webhook_data"`
	TransactionReference string            `db:"transaction_reference"`
	Status               TransactionStatus `db:"status"`
	ID                   uuid.UUID         `db:"id"`
	OrderID              uuid.UUID         `db:"order_id"`
	UserID               uuid.UUID         `db:"user_id"`
}
