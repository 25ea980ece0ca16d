// Package cache marks dependent read caches stale after reconciliation.
package cache

import (
	"context"

	"github.com/google/uuid"
)

// Invalidator marks named cache scopes stale. Invalidation is fire-and-forget:
// callers log failures and never propagate them as request failures.
type Invalidator interface {
	Invalidate(ctx context.Context, scopes ...string) error
}

// ReconciliationScopes returns the cache scopes dependent on a reconciled
// transaction: global order lists (customer and admin), the order's detail
// view, the owning user's order list, and the payment views.
func ReconciliationScopes(orderID, userID, transactionID uuid.UUID) []string {
	return []string{
		"orders",
		"admin:orders",
		"order:" + orderID.String(),
		"user:" + userID.String() + ":orders",
		"payments",
		"payment:" + transactionID.String(),
	}
}

// Noop is the Invalidator used when no cache backend is configured.
type Noop struct{}

// Invalidate does nothing.
func (Noop) Invalidate(context.Context, ...string) error { return nil }
