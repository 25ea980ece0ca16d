package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/iamciscoo/tisco-payments/internal/models"
	"github.com/iamciscoo/tisco-payments/internal/repository/mocks"
	"github.com/iamciscoo/tisco-payments/internal/webhook"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type reconcileFixture struct {
	transactions *mocks.MockTransactionRepository
	orders       *mocks.MockOrderRepository
	logs         *mocks.MockPaymentLogRepository
	service      *ReconcileService
}

func newFixture(t *testing.T) *reconcileFixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := &reconcileFixture{
		transactions: mocks.NewMockTransactionRepository(t),
		orders:       mocks.NewMockOrderRepository(t),
		logs:         mocks.NewMockPaymentLogRepository(t),
	}
	f.service = NewReconcileService(f.transactions, f.orders, f.logs, logger)
	return f
}

func pendingTransaction() *models.PaymentTransaction {
	return &models.PaymentTransaction{
		ID:                   uuid.New(),
		OrderID:              uuid.New(),
		UserID:               uuid.New(),
		TransactionReference: "R1",
		Status:               models.TransactionStatusPending,
		CreatedAt:            time.Now(),
	}
}

func expectLog(f *reconcileFixture, eventType models.PaymentEventType) {
	f.logs.On("Append", mock.Anything, mock.MatchedBy(func(entry *models.PaymentLog) bool {
		return entry.EventType == eventType
	})).Return(nil)
}

func TestReconcile_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	txn := pendingTransaction()
	raw := json.RawMessage(`{"order_id":"R1","status":"SUCCESS"}`)

	event := webhook.NormalizedEvent{Reference: "R1", GatewayID: "GW1", Status: webhook.StatusSuccess}

	f.transactions.On("FindByReferenceOrGatewayID", ctx, "R1", "GW1").Return(txn, nil)
	f.transactions.On("MarkCompleted", ctx, txn.ID, "GW1", raw, mock.AnythingOfType("time.Time")).Return(nil)
	f.orders.On("MarkPaid", ctx, txn.OrderID, mock.AnythingOfType("time.Time")).Return(nil)
	expectLog(f, models.EventPaymentCompleted)

	result, err := f.service.Reconcile(ctx, event, raw)

	assert.NoError(t, err)
	assert.True(t, result.StateChanged)
	assert.Equal(t, models.EventPaymentCompleted, result.EventType)
	assert.Equal(t, txn.ID, result.Transaction.ID)
}

func TestReconcile_SuccessIdempotentRedelivery(t *testing.T) {
	// A transaction already completed by a previous delivery of the same
	// event converges to the same end state; only the log row duplicates.
	f := newFixture(t)
	ctx := context.Background()
	txn := pendingTransaction()
	txn.Status = models.TransactionStatusCompleted
	raw := json.RawMessage(`{"order_id":"R1","status":"SUCCESS"}`)

	event := webhook.NormalizedEvent{Reference: "R1", Status: webhook.StatusSuccess}

	f.transactions.On("FindByReferenceOrGatewayID", ctx, "R1", "").Return(txn, nil)
	f.transactions.On("MarkCompleted", ctx, txn.ID, "", raw, mock.AnythingOfType("time.Time")).Return(nil)
	f.orders.On("MarkPaid", ctx, txn.OrderID, mock.AnythingOfType("time.Time")).Return(nil)
	expectLog(f, models.EventPaymentCompleted)

	result, err := f.service.Reconcile(ctx, event, raw)

	assert.NoError(t, err)
	assert.Equal(t, models.EventPaymentCompleted, result.EventType)
}

func TestReconcile_SuccessContinuesPastWriteFailure(t *testing.T) {
	// Best-effort sequence: a failed transaction write must not stop the
	// order update or the audit log.
	f := newFixture(t)
	ctx := context.Background()
	txn := pendingTransaction()
	raw := json.RawMessage(`{}`)

	event := webhook.NormalizedEvent{Reference: "R1", Status: webhook.StatusSuccess}

	f.transactions.On("FindByReferenceOrGatewayID", ctx, "R1", "").Return(txn, nil)
	f.transactions.On("MarkCompleted", ctx, txn.ID, "", raw, mock.AnythingOfType("time.Time")).
		Return(errors.New("connection reset"))
	f.orders.On("MarkPaid", ctx, txn.OrderID, mock.AnythingOfType("time.Time")).Return(nil)
	expectLog(f, models.EventPaymentCompleted)

	result, err := f.service.Reconcile(ctx, event, raw)

	assert.NoError(t, err, "write failures are logged, not propagated")
	assert.True(t, result.StateChanged)
}

func TestReconcile_Pending(t *testing.T) {
	t.Run("already pending is a no-op", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		txn := pendingTransaction()
		raw := json.RawMessage(`{"order_id":"R1","status":"PENDING"}`)

		f.transactions.On("FindByReferenceOrGatewayID", ctx, "R1", "").Return(txn, nil)
		expectLog(f, models.EventPaymentPending)

		result, err := f.service.Reconcile(ctx, webhook.NormalizedEvent{Reference: "R1", Status: webhook.StatusPending}, raw)

		assert.NoError(t, err)
		assert.False(t, result.StateChanged)
		assert.Equal(t, models.EventPaymentPending, result.EventType)
	})

	t.Run("bounced-back transaction returns to pending", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		txn := pendingTransaction()
		txn.Status = models.TransactionStatusFailed
		raw := json.RawMessage(`{"order_id":"R1","status":"PROCESSING"}`)

		f.transactions.On("FindByReferenceOrGatewayID", ctx, "R1", "").Return(txn, nil)
		f.transactions.On("MarkPending", ctx, txn.ID, raw).Return(nil)
		expectLog(f, models.EventPaymentPending)

		result, err := f.service.Reconcile(ctx, webhook.NormalizedEvent{Reference: "R1", Status: webhook.StatusPending}, raw)

		assert.NoError(t, err)
		assert.True(t, result.StateChanged)
	})
}

func TestReconcile_CancelledGuard(t *testing.T) {
	t.Run("settled sibling preserves order payment status", func(t *testing.T) {
		// Transaction A completed, transaction B pending: cancelling B must
		// not move the order away from paid.
		f := newFixture(t)
		ctx := context.Background()
		txn := pendingTransaction()
		raw := json.RawMessage(`{"order_id":"R1","status":"CANCELLED"}`)

		f.transactions.On("FindByReferenceOrGatewayID", ctx, "R1", "").Return(txn, nil)
		f.transactions.On("MarkCancelled", ctx, txn.ID, raw, mock.AnythingOfType("time.Time")).Return(nil)
		f.transactions.On("HasSettledSibling", ctx, txn.OrderID, txn.ID).Return(true, nil)
		expectLog(f, models.EventPaymentCancelled)
		// No orders.UpdatePaymentStatus expectation: the guard must hold.

		result, err := f.service.Reconcile(ctx, webhook.NormalizedEvent{Reference: "R1", Status: webhook.StatusCancelled}, raw)

		assert.NoError(t, err)
		assert.Equal(t, models.EventPaymentCancelled, result.EventType)
	})

	t.Run("no sibling downgrades order", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		txn := pendingTransaction()
		raw := json.RawMessage(`{}`)

		f.transactions.On("FindByReferenceOrGatewayID", ctx, "R1", "").Return(txn, nil)
		f.transactions.On("MarkCancelled", ctx, txn.ID, raw, mock.AnythingOfType("time.Time")).Return(nil)
		f.transactions.On("HasSettledSibling", ctx, txn.OrderID, txn.ID).Return(false, nil)
		f.orders.On("UpdatePaymentStatus", ctx, txn.OrderID, models.PaymentStatusCancelled).Return(nil)
		expectLog(f, models.EventPaymentCancelled)

		_, err := f.service.Reconcile(ctx, webhook.NormalizedEvent{Reference: "R1", Status: webhook.StatusCancelled}, raw)

		assert.NoError(t, err)
	})

	t.Run("guard check failure skips downgrade", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		txn := pendingTransaction()
		raw := json.RawMessage(`{}`)

		f.transactions.On("FindByReferenceOrGatewayID", ctx, "R1", "").Return(txn, nil)
		f.transactions.On("MarkCancelled", ctx, txn.ID, raw, mock.AnythingOfType("time.Time")).Return(nil)
		f.transactions.On("HasSettledSibling", ctx, txn.OrderID, txn.ID).Return(false, errors.New("timeout"))
		expectLog(f, models.EventPaymentCancelled)

		_, err := f.service.Reconcile(ctx, webhook.NormalizedEvent{Reference: "R1", Status: webhook.StatusCancelled}, raw)

		assert.NoError(t, err)
	})
}

func TestReconcile_Failed(t *testing.T) {
	t.Run("records supplied failure reason", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		txn := pendingTransaction()
		raw := json.RawMessage(`{"transaction_id":"GW9","status":"FAILED","failure_reason":"insufficient_funds"}`)

		event := webhook.NormalizedEvent{GatewayID: "GW9", Status: webhook.StatusFailed, FailureReason: "insufficient_funds"}

		f.transactions.On("FindByReferenceOrGatewayID", ctx, "", "GW9").Return(txn, nil)
		f.transactions.On("MarkFailed", ctx, txn.ID, "insufficient_funds", raw, mock.AnythingOfType("time.Time")).Return(nil)
		f.transactions.On("HasSettledSibling", ctx, txn.OrderID, txn.ID).Return(false, nil)
		f.orders.On("UpdatePaymentStatus", ctx, txn.OrderID, models.PaymentStatusFailed).Return(nil)
		expectLog(f, models.EventPaymentFailed)

		result, err := f.service.Reconcile(ctx, event, raw)

		assert.NoError(t, err)
		assert.Equal(t, models.EventPaymentFailed, result.EventType)
	})

	t.Run("defaults the failure reason", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		txn := pendingTransaction()
		raw := json.RawMessage(`{}`)

		f.transactions.On("FindByReferenceOrGatewayID", ctx, "R1", "").Return(txn, nil)
		f.transactions.On("MarkFailed", ctx, txn.ID, defaultFailureReason, raw, mock.AnythingOfType("time.Time")).Return(nil)
		f.transactions.On("HasSettledSibling", ctx, txn.OrderID, txn.ID).Return(false, nil)
		f.orders.On("UpdatePaymentStatus", ctx, txn.OrderID, models.PaymentStatusFailed).Return(nil)
		expectLog(f, models.EventPaymentFailed)

		_, err := f.service.Reconcile(ctx, webhook.NormalizedEvent{Reference: "R1", Status: webhook.StatusFailed}, raw)

		assert.NoError(t, err)
	})

	t.Run("settled sibling blocks order downgrade", func(t *testing.T) {
		// Same guard policy as cancellation: a late failure for a superseded
		// retry attempt cannot regress a paid order.
		f := newFixture(t)
		ctx := context.Background()
		txn := pendingTransaction()
		raw := json.RawMessage(`{}`)

		f.transactions.On("FindByReferenceOrGatewayID", ctx, "R1", "").Return(txn, nil)
		f.transactions.On("MarkFailed", ctx, txn.ID, defaultFailureReason, raw, mock.AnythingOfType("time.Time")).Return(nil)
		f.transactions.On("HasSettledSibling", ctx, txn.OrderID, txn.ID).Return(true, nil)
		expectLog(f, models.EventPaymentFailed)

		_, err := f.service.Reconcile(ctx, webhook.NormalizedEvent{Reference: "R1", Status: webhook.StatusFailed}, raw)

		assert.NoError(t, err)
	})
}

func TestReconcile_UnrecognizedStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	txn := pendingTransaction()
	raw := json.RawMessage(`{"order_id":"R2","status":"UNKNOWN_EVENT"}`)

	f.transactions.On("FindByReferenceOrGatewayID", ctx, "R2", "").Return(txn, nil)
	// No writes and no audit row for an unrecognized status.

	result, err := f.service.Reconcile(ctx, webhook.NormalizedEvent{Reference: "R2", RawStatus: "UNKNOWN_EVENT", Status: webhook.StatusUnknown}, raw)

	assert.NoError(t, err)
	assert.False(t, result.StateChanged)
	assert.Empty(t, result.EventType)
}

func TestReconcile_LookupErrors(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		f.transactions.On("FindByReferenceOrGatewayID", ctx, "", "GW9").Return(nil, models.ErrNotFound)

		result, err := f.service.Reconcile(ctx, webhook.NormalizedEvent{GatewayID: "GW9", Status: webhook.StatusFailed}, json.RawMessage(`{}`))

		assert.Nil(t, result)
		var svcErr *ServiceError
		if assert.ErrorAs(t, err, &svcErr) {
			assert.Equal(t, ErrCodeTransactionNotFound, svcErr.Code)
		}
	})

	t.Run("ambiguous match fails loudly", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		f.transactions.On("FindByReferenceOrGatewayID", ctx, "R1", "GW1").Return(nil, models.ErrAmbiguousMatch)

		result, err := f.service.Reconcile(ctx, webhook.NormalizedEvent{Reference: "R1", GatewayID: "GW1", Status: webhook.StatusSuccess}, json.RawMessage(`{}`))

		assert.Nil(t, result)
		var svcErr *ServiceError
		if assert.ErrorAs(t, err, &svcErr) {
			assert.Equal(t, ErrCodeAmbiguousTransaction, svcErr.Code)
		}
	})

	t.Run("store error", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		f.transactions.On("FindByReferenceOrGatewayID", ctx, "R1", "").Return(nil, errors.New("connection refused"))

		_, err := f.service.Reconcile(ctx, webhook.NormalizedEvent{Reference: "R1", Status: webhook.StatusSuccess}, json.RawMessage(`{}`))

		var svcErr *ServiceError
		if assert.ErrorAs(t, err, &svcErr) {
			assert.Equal(t, ErrCodeInternalError, svcErr.Code)
		}
	})
}

func TestReconcile_AuditLogFailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	txn := pendingTransaction()
	raw := json.RawMessage(`{}`)

	f.transactions.On("FindByReferenceOrGatewayID", ctx, "R1", "").Return(txn, nil)
	f.transactions.On("MarkCompleted", ctx, txn.ID, "", raw, mock.AnythingOfType("time.Time")).Return(nil)
	f.orders.On("MarkPaid", ctx, txn.OrderID, mock.AnythingOfType("time.Time")).Return(nil)
	f.logs.On("Append", mock.Anything, mock.AnythingOfType("*models.PaymentLog")).Return(errors.New("insert failed"))

	result, err := f.service.Reconcile(ctx, webhook.NormalizedEvent{Reference: "R1", Status: webhook.StatusSuccess}, raw)

	assert.NoError(t, err, "audit log failure must not fail the webhook")
	assert.True(t, result.StateChanged)
}
