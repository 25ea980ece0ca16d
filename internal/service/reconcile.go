// Package service implements the reconciliation state machine that maps
// gateway webhook events onto payment transaction and order state.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/iamciscoo/tisco-payments/internal/models"
	"github.com/iamciscoo/tisco-payments/internal/repository"
	"github.com/iamciscoo/tisco-payments/internal/webhook"
	"github.com/google/uuid"
)

// defaultFailureReason is recorded when a failed event carries no reason.
const defaultFailureReason = "Payment failed"

// ReconcileService drives the transaction state machine:
// pending → {completed, failed, cancelled}, with terminal states idempotent
// under at-least-once webhook delivery.
//
// Each transition is a best-effort sequence of independent writes: a failed
// write is logged and the sequence continues, trading strict atomicity for
// availability. Testers must account for partially applied transitions.
type ReconcileService struct {
	transactions repository.TransactionRepository
	orders       repository.OrderRepository
	logs         repository.PaymentLogRepository
	logger       *slog.Logger
	now          func() time.Time
}

// NewReconcileService creates a new ReconcileService
func NewReconcileService(
	transactions repository.TransactionRepository,
	orders repository.OrderRepository,
	logs repository.PaymentLogRepository,
	logger *slog.Logger,
) *ReconcileService {
	return &ReconcileService{
		transactions: transactions,
		orders:       orders,
		logs:         logs,
		logger:       logger,
		now:          time.Now,
	}
}

// ReconcileResult reports the branch taken for a processed event.
type ReconcileResult struct {
	Transaction *models.PaymentTransaction
	// EventType is the audit tag of the branch taken; empty when the status
	// was unrecognized and nothing changed.
	EventType models.PaymentEventType
	// StateChanged is false for no-op deliveries (unrecognized status, or a
	// pending event for an already-pending transaction).
	StateChanged bool
}

// Reconcile locates the transaction matching the event and applies the
// transition for its canonical status.
//
// Lookup failures are returned as ServiceError for the handler to map
// (404 for no match, 500 for an ambiguous match — never silently picking a
// row). Write failures inside a transition are logged and swallowed so the
// gateway still receives a 2xx and does not enter a retry storm.
func (s *ReconcileService) Reconcile(ctx context.Context, event webhook.NormalizedEvent, rawPayload json.RawMessage) (*ReconcileResult, error) {
	txn, err := s.transactions.FindByReferenceOrGatewayID(ctx, event.Reference, event.GatewayID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			s.logger.Warn("webhook transaction not found",
				"reference", event.Reference,
				"gateway_id", event.GatewayID,
			)
			return nil, &ServiceError{
				Code:    ErrCodeTransactionNotFound,
				Message: "transaction not found",
				Err:     err,
			}
		case errors.Is(err, models.ErrAmbiguousMatch):
			s.logger.Error("webhook matched multiple transactions",
				"reference", event.Reference,
				"gateway_id", event.GatewayID,
			)
			return nil, &ServiceError{
				Code:    ErrCodeAmbiguousTransaction,
				Message: "webhook identifiers match multiple transactions",
				Err:     err,
			}
		default:
			return nil, &ServiceError{
				Code:    ErrCodeInternalError,
				Message: "failed to locate transaction",
				Err:     err,
			}
		}
	}

	switch event.Status {
	case webhook.StatusSuccess:
		return s.applySuccess(ctx, txn, event, rawPayload), nil
	case webhook.StatusPending:
		return s.applyPending(ctx, txn, rawPayload), nil
	case webhook.StatusCancelled:
		return s.applyCancelled(ctx, txn, rawPayload), nil
	case webhook.StatusFailed:
		return s.applyFailed(ctx, txn, event, rawPayload), nil
	default:
		// Unrecognized status: no state change, no audit row. Returning
		// success prevents the gateway from retrying an event this service
		// will never understand.
		s.logger.Warn("unrecognized webhook status; ignoring",
			"raw_status", event.RawStatus,
			"transaction_id", txn.ID,
		)
		return &ReconcileResult{Transaction: txn}, nil
	}
}

// applySuccess: transaction → completed, order → processing/paid.
func (s *ReconcileService) applySuccess(ctx context.Context, txn *models.PaymentTransaction, event webhook.NormalizedEvent, rawPayload json.RawMessage) *ReconcileResult {
	now := s.now()

	if err := s.transactions.MarkCompleted(ctx, txn.ID, event.GatewayID, rawPayload, now); err != nil {
		s.logger.Error("failed to mark transaction completed",
			"transaction_id", txn.ID,
			"error", err,
		)
	}

	if err := s.orders.MarkPaid(ctx, txn.OrderID, now); err != nil {
		s.logger.Error("failed to mark order paid",
			"order_id", txn.OrderID,
			"error", err,
		)
	}

	s.appendLog(ctx, txn.ID, models.EventPaymentCompleted, rawPayload)

	return &ReconcileResult{
		Transaction:  txn,
		EventType:    models.EventPaymentCompleted,
		StateChanged: true,
	}
}

// applyPending: set the transaction back to pending when it drifted away.
// The order is never touched by a pending event.
func (s *ReconcileService) applyPending(ctx context.Context, txn *models.PaymentTransaction, rawPayload json.RawMessage) *ReconcileResult {
	changed := txn.Status != models.TransactionStatusPending
	if changed {
		if err := s.transactions.MarkPending(ctx, txn.ID, rawPayload); err != nil {
			s.logger.Error("failed to mark transaction pending",
				"transaction_id", txn.ID,
				"error", err,
			)
		}
	}

	s.appendLog(ctx, txn.ID, models.EventPaymentPending, rawPayload)

	return &ReconcileResult{
		Transaction:  txn,
		EventType:    models.EventPaymentPending,
		StateChanged: changed,
	}
}

// applyCancelled: transaction → cancelled; the order's payment_status is
// downgraded only when no sibling transaction has settled it.
func (s *ReconcileService) applyCancelled(ctx context.Context, txn *models.PaymentTransaction, rawPayload json.RawMessage) *ReconcileResult {
	if err := s.transactions.MarkCancelled(ctx, txn.ID, rawPayload, s.now()); err != nil {
		s.logger.Error("failed to mark transaction cancelled",
			"transaction_id", txn.ID,
			"error", err,
		)
	}

	s.downgradeOrderPayment(ctx, txn, models.PaymentStatusCancelled)
	s.appendLog(ctx, txn.ID, models.EventPaymentCancelled, rawPayload)

	return &ReconcileResult{
		Transaction:  txn,
		EventType:    models.EventPaymentCancelled,
		StateChanged: true,
	}
}

// applyFailed: transaction → failed with a reason; the order downgrade is
// gated by the same sibling guard as cancellation, so a late failure for a
// superseded retry attempt cannot regress a paid order.
func (s *ReconcileService) applyFailed(ctx context.Context, txn *models.PaymentTransaction, event webhook.NormalizedEvent, rawPayload json.RawMessage) *ReconcileResult {
	reason := event.FailureReason
	if reason == "" {
		reason = defaultFailureReason
	}

	if err := s.transactions.MarkFailed(ctx, txn.ID, reason, rawPayload, s.now()); err != nil {
		s.logger.Error("failed to mark transaction failed",
			"transaction_id", txn.ID,
			"error", err,
		)
	}

	s.downgradeOrderPayment(ctx, txn, models.PaymentStatusFailed)
	s.appendLog(ctx, txn.ID, models.EventPaymentFailed, rawPayload)

	return &ReconcileResult{
		Transaction:  txn,
		EventType:    models.EventPaymentFailed,
		StateChanged: true,
	}
}

// downgradeOrderPayment applies a failed/cancelled payment status to the
// order unless another transaction on the order is completed or processing.
// When the guard check itself fails the downgrade is skipped: leaving a
// possibly-paid order untouched is the safer wrong answer.
func (s *ReconcileService) downgradeOrderPayment(ctx context.Context, txn *models.PaymentTransaction, status models.PaymentStatus) {
	settled, err := s.transactions.HasSettledSibling(ctx, txn.OrderID, txn.ID)
	if err != nil {
		s.logger.Error("failed to check sibling transactions; skipping order downgrade",
			"order_id", txn.OrderID,
			"error", err,
		)
		return
	}
	if settled {
		s.logger.Info("order has a settled sibling transaction; payment status preserved",
			"order_id", txn.OrderID,
			"transaction_id", txn.ID,
		)
		return
	}

	if err := s.orders.UpdatePaymentStatus(ctx, txn.OrderID, status); err != nil {
		s.logger.Error("failed to update order payment status",
			"order_id", txn.OrderID,
			"payment_status", status,
			"error", err,
		)
	}
}

// appendLog writes one audit row. Failure is logged but never fails the
// webhook: the gateway must still receive a 2xx once transaction state has
// been updated.
func (s *ReconcileService) appendLog(ctx context.Context, transactionID uuid.UUID, eventType models.PaymentEventType, data json.RawMessage) {
	entry := &models.PaymentLog{
		TransactionID: transactionID,
		EventType:     eventType,
		Data:          data,
		CreatedAt:     s.now(),
	}

	if err := s.logs.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append payment log",
			"transaction_id", transactionID,
			"event_type", eventType,
			"error", err,
		)
	}
}
