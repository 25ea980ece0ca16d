// Package repository provides data access layer implementations for the
// payment reconciliation service.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iamciscoo/tisco-payments/internal/db"
	"github.com/iamciscoo/tisco-payments/internal/models"
	"github.com/google/uuid"
)

// TransactionRepository defines the interface for payment transaction data access
type TransactionRepository interface {
	FindByReferenceOrGatewayID(ctx context.Context, reference, gatewayID string) (*models.PaymentTransaction, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, gatewayID string, webhookData json.RawMessage, completedAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string, webhookData json.RawMessage, failedAt time.Time) error
	MarkCancelled(ctx context.Context, id uuid.UUID, webhookData json.RawMessage, cancelledAt time.Time) error
	MarkPending(ctx context.Context, id uuid.UUID, webhookData json.RawMessage) error
	HasSettledSibling(ctx context.Context, orderID, excludeID uuid.UUID) (bool, error)
}

// transactionRepository implements TransactionRepository
type transactionRepository struct {
	db *db.DB
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(database *db.DB) TransactionRepository {
	return &transactionRepository{db: database}
}

const transactionColumns = `
	id, order_id, user_id, transaction_reference, gateway_transaction_id,
	status, failure_reason, webhook_data,
	created_at, updated_at, completed_at, failed_at, cancelled_at
`

// FindByReferenceOrGatewayID locates the unique transaction matching either
// identifier. Empty inputs are excluded from the match. Zero rows yields
// models.ErrNotFound; more than one yields models.ErrAmbiguousMatch, which
// the caller must surface loudly rather than picking a row.
func (r *transactionRepository) FindByReferenceOrGatewayID(ctx context.Context, reference, gatewayID string) (*models.PaymentTransaction, error) {
	if reference == "" && gatewayID == "" {
		return nil, models.ErrNotFound
	}

	query := `
		SELECT ` + transactionColumns + `
		FROM payment_transactions
		WHERE (transaction_reference = $1 AND $1 <> '')
		   OR (gateway_transaction_id = $2 AND $2 <> '')
		LIMIT 2
	`

	rows, err := r.db.QueryContext(ctx, query, reference, gatewayID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to read transaction row: %w", err)
		}
		return nil, models.ErrNotFound
	}

	txn, err := scanTransaction(rows)
	if err != nil {
		return nil, err
	}

	if rows.Next() {
		return nil, fmt.Errorf("reference %q gateway id %q: %w", reference, gatewayID, models.ErrAmbiguousMatch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transaction rows: %w", err)
	}

	return txn, nil
}

// MarkCompleted transitions a transaction to completed, recording the
// gateway-assigned id and the raw payload for forensic replay. A gateway id
// already on file is never erased by an empty one.
func (r *transactionRepository) MarkCompleted(ctx context.Context, id uuid.UUID, gatewayID string, webhookData json.RawMessage, completedAt time.Time) error {
	query := `
		UPDATE payment_transactions
		SET status = 'completed',
		    completed_at = $2,
		    gateway_transaction_id = COALESCE(NULLIF($3, ''), gateway_transaction_id),
		    webhook_data = $4,
		    updated_at = NOW()
		WHERE id = $1
	`

	return r.exec(ctx, "mark transaction completed", query, id, completedAt, gatewayID, []byte(webhookData))
}

// MarkFailed transitions a transaction to failed with a failure reason.
func (r *transactionRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string, webhookData json.RawMessage, failedAt time.Time) error {
	query := `
		UPDATE payment_transactions
		SET status = 'failed',
		    failed_at = $2,
		    failure_reason = $3,
		    webhook_data = $4,
		    updated_at = NOW()
		WHERE id = $1
	`

	return r.exec(ctx, "mark transaction failed", query, id, failedAt, reason, []byte(webhookData))
}

// MarkCancelled transitions a transaction to cancelled.
func (r *transactionRepository) MarkCancelled(ctx context.Context, id uuid.UUID, webhookData json.RawMessage, cancelledAt time.Time) error {
	query := `
		UPDATE payment_transactions
		SET status = 'cancelled',
		    cancelled_at = $2,
		    webhook_data = $3,
		    updated_at = NOW()
		WHERE id = $1
	`

	return r.exec(ctx, "mark transaction cancelled", query, id, cancelledAt, []byte(webhookData))
}

// MarkPending sets a transaction back to pending. Covers a transaction that
// bounces back after being marked otherwise; rare but delivered events may
// arrive out of order.
func (r *transactionRepository) MarkPending(ctx context.Context, id uuid.UUID, webhookData json.RawMessage) error {
	query := `
		UPDATE payment_transactions
		SET status = 'pending',
		    webhook_data = $2,
		    updated_at = NOW()
		WHERE id = $1
	`

	return r.exec(ctx, "mark transaction pending", query, id, []byte(webhookData))
}

// HasSettledSibling reports whether any other transaction on the order is
// completed or processing. Guards order payment-status downgrades against
// late-arriving events for superseded retry attempts.
func (r *transactionRepository) HasSettledSibling(ctx context.Context, orderID, excludeID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM payment_transactions
			WHERE order_id = $1
			  AND id <> $2
			  AND status IN ('completed', 'processing')
		)
	`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, orderID, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check sibling transactions: %w", err)
	}

	return exists, nil
}

func (r *transactionRepository) exec(ctx context.Context, action, query string, args ...any) error {
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*models.PaymentTransaction, error) {
	var (
		txn         models.PaymentTransaction
		gatewayID   sql.NullString
		reason      sql.NullString
		webhookData []byte
		completedAt sql.NullTime
		failedAt    sql.NullTime
		cancelledAt sql.NullTime
	)

	err := row.Scan(
		&txn.ID,
		&txn.OrderID,
		&txn.UserID,
		&txn.TransactionReference,
		&gatewayID,
		&txn.Status,
		&reason,
		&webhookData,
		&txn.CreatedAt,
		&txn.UpdatedAt,
		&completedAt,
		&failedAt,
		&cancelledAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	if gatewayID.Valid {
		txn.GatewayTransactionID = &gatewayID.String
	}
	if reason.Valid {
		txn.FailureReason = &reason.String
	}
	if len(webhookData) > 0 {
		txn.WebhookData = json.RawMessage(webhookData)
	}
	if completedAt.Valid {
		txn.CompletedAt = &completedAt.Time
	}
	if failedAt.Valid {
		txn.FailedAt = &failedAt.Time
	}
	if cancelledAt.Valid {
		txn.CancelledAt = &cancelledAt.Time
	}

	return &txn, nil
}
