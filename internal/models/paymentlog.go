package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PaymentEventType tags an audit log entry with the reconciliation branch
// that produced it
type PaymentEventType string

const (
	EventPaymentCompleted PaymentEventType = "payment_completed"
	EventPaymentFailed    PaymentEventType = "payment_failed"
	EventPaymentPending   PaymentEventType = "payment_pending"
	EventPaymentCancelled PaymentEventType = "payment_cancelled"
)

// PaymentLog is an append-only audit record, one row per reconciliation
// event. Rows are never updated or deleted by this service.
type PaymentLog struct {
	CreatedAt     time.Time        `db:"created_at"`
	EventType     PaymentEventType `db:"event_type"`
	Data          json.RawMessage  `db:"data"`
	ID            uuid.UUID        `db:"id"`
	TransactionID uuid.UUID        `db:"transaction_id"`
}
