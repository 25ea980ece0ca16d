package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/iamciscoo/tisco-payments/internal/db"
	"github.com/iamciscoo/tisco-payments/internal/models"
	"github.com/google/uuid"
)

// PaymentLogRepository defines the insert-only interface for the audit trail.
// This service never updates or deletes log rows.
type PaymentLogRepository interface {
	Append(ctx context.Context, entry *models.PaymentLog) error
}

// paymentLogRepository implements PaymentLogRepository
type paymentLogRepository struct {
	db *db.DB
}

// NewPaymentLogRepository creates a new PaymentLogRepository
func NewPaymentLogRepository(database *db.DB) PaymentLogRepository {
	return &paymentLogRepository{db: database}
}

// Append inserts one audit row. Duplicate rows for redelivered webhooks are
// acceptable; exactly-once log semantics are not required.
func (r *paymentLogRepository) Append(ctx context.Context, entry *models.PaymentLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO payment_logs (id, transaction_id, event_type, data, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.TransactionID,
		string(entry.EventType),
		[]byte(entry.Data),
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append payment log: %w", err)
	}

	return nil
}
