package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/iamciscoo/tisco-payments/internal/cache"
	"github.com/iamciscoo/tisco-payments/internal/events"
	"github.com/iamciscoo/tisco-payments/internal/middleware"
	"github.com/iamciscoo/tisco-payments/internal/service"
	"github.com/iamciscoo/tisco-payments/internal/webhook"
)

// maxWebhookBody caps the raw body read; gateway callbacks are small.
const maxWebhookBody = 1 << 20

// HandleWebhook handles POST /api/payments/webhooks.
//
// The body is read raw before JSON parsing so the HMAC is computed over the
// exact bytes the gateway signed.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("panic in webhook pipeline", "panic", rec)
			writeError(w, h.logger, http.StatusInternalServerError, "Webhook processing failed")
		}
	}()

	if h.reconciler == nil {
		writeError(w, h.logger, http.StatusServiceUnavailable, "Webhook disabled: missing database configuration")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Webhook processing failed")
		return
	}

	signature := r.Header.Get("x-signature")
	if signature == "" {
		signature = r.Header.Get("x-webhook-signature")
	}

	if !h.verifier.Authenticate(body, signature, r.Header.Get("x-api-key")) {
		h.logger.Warn("webhook authentication failed", "remote", r.RemoteAddr)
		writeError(w, h.logger, http.StatusUnauthorized, "Invalid webhook authentication")
		return
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		h.logger.Warn("webhook body is not valid JSON", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	event := webhook.Normalize(payload)
	if event.Reference == "" && event.GatewayID == "" {
		h.logger.Warn("webhook carries no transaction identifiers")
		writeError(w, h.logger, http.StatusNotFound, "Transaction not found")
		return
	}

	result, err := h.reconciler.Reconcile(r.Context(), event, body)
	if err != nil {
		status := statusForServiceError(err)
		if status == http.StatusNotFound {
			writeError(w, h.logger, status, "Transaction not found")
			return
		}
		h.logger.Error("webhook reconciliation failed", "error", err)
		writeError(w, h.logger, status, "Webhook processing failed")
		return
	}

	if result.EventType != "" {
		middleware.RecordReconciliation(string(result.EventType))
	}

	if result.StateChanged {
		txn := result.Transaction
		scopes := cache.ReconciliationScopes(txn.OrderID, txn.UserID, txn.ID)
		if err := h.invalidator.Invalidate(r.Context(), scopes...); err != nil {
			h.logger.Error("cache invalidation failed", "error", err)
		}

		h.publishEvent(r, result)
	}

	writeJSON(w, h.logger, http.StatusOK, map[string]bool{"received": true})
}

func (h *Handler) publishEvent(r *http.Request, result *service.ReconcileResult) {
	txn := result.Transaction

	event := events.PaymentEvent{
		PaymentID: txn.ID,
		OrderID:   txn.OrderID,
		UserID:    txn.UserID,
		EventType: result.EventType,
	}
	if txn.GatewayTransactionID != nil {
		event.GatewayTransactionID = *txn.GatewayTransactionID
	}

	if err := h.publisher.Publish(r.Context(), event); err != nil {
		h.logger.Error("payment event publish failed", "error", err)
	}
}
