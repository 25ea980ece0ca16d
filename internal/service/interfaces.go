package service

import (
	"context"
	"encoding/json"

	"github.com/iamciscoo/tisco-payments/internal/webhook"
)

// Reconciler maps a normalized gateway event onto internal transaction and
// order state.
type Reconciler interface {
	Reconcile(ctx context.Context, event webhook.NormalizedEvent, rawPayload json.RawMessage) (*ReconcileResult, error)
}

// Ensure concrete types implement interfaces
var _ Reconciler = (*ReconcileService)(nil)
