package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iamciscoo/tisco-payments/internal/db"
	"github.com/iamciscoo/tisco-payments/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// pgUndefinedColumn is the Postgres error code raised when a statement
// references a column the schema does not have.
const pgUndefinedColumn = "42703"

// OrderRepository defines the interface for order data access. Reconciliation
// only ever mutates status, payment_status, paid_at and updated_at.
type OrderRepository interface {
	MarkPaid(ctx context.Context, orderID uuid.UUID, paidAt time.Time) error
	UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, status models.PaymentStatus) error
}

// orderRepository implements OrderRepository
type orderRepository struct {
	db *db.DB
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(database *db.DB) OrderRepository {
	return &orderRepository{db: database}
}

// MarkPaid records a successful payment: payment_status becomes paid and the
// fulfillment status is nudged to processing.
//
// Some deployed schemas predate the paid_at column; when the store rejects it
// with undefined_column the update is retried once without the field.
func (r *orderRepository) MarkPaid(ctx context.Context, orderID uuid.UUID, paidAt time.Time) error {
	query := `
		UPDATE orders
		SET status = 'processing',
		    payment_status = 'paid',
		    paid_at = $2,
		    updated_at = NOW()
		WHERE id = $1
	`

	err := r.exec(ctx, "mark order paid", query, orderID, paidAt)
	if err == nil || !isUndefinedColumn(err) {
		return err
	}

	fallback := `
		UPDATE orders
		SET status = 'processing',
		    payment_status = 'paid',
		    updated_at = NOW()
		WHERE id = $1
	`

	if retryErr := r.exec(ctx, "mark order paid", fallback, orderID); retryErr != nil {
		return fmt.Errorf("retry without paid_at: %w", retryErr)
	}
	return nil
}

// UpdatePaymentStatus sets only the order's payment_status. Fulfillment
// status is untouched; failed and cancelled payments never regress it.
func (r *orderRepository) UpdatePaymentStatus(ctx context.Context, orderID uuid.UUID, status models.PaymentStatus) error {
	query := `
		UPDATE orders
		SET payment_status = $2,
		    updated_at = NOW()
		WHERE id = $1
	`

	return r.exec(ctx, "update order payment status", query, orderID, string(status))
}

func (r *orderRepository) exec(ctx context.Context, action, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", action, models.ErrNotFound)
	}

	return nil
}

func isUndefinedColumn(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pgUndefinedColumn
}
