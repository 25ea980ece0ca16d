// Package handlers implements HTTP handlers for the payment webhook API.
package handlers

import (
	"log/slog"

	"github.com/iamciscoo/tisco-payments/internal/cache"
	"github.com/iamciscoo/tisco-payments/internal/events"
	"github.com/iamciscoo/tisco-payments/internal/service"
	"github.com/iamciscoo/tisco-payments/internal/webhook"
)

// HealthChecker validates system health.
type HealthChecker interface {
	Ping() error
}

// Handler serves the webhook endpoint with injected dependencies.
//
// A nil reconciler means the data store was never configured; the webhook
// endpoint answers 503 while /health and /metrics stay available.
type Handler struct {
	verifier    *webhook.SignatureVerifier
	reconciler  service.Reconciler
	invalidator cache.Invalidator
	publisher   events.Publisher
	health      HealthChecker
	logger      *slog.Logger
}

// NewHandler creates a new Handler with injected dependencies.
func NewHandler(
	verifier *webhook.SignatureVerifier,
	reconciler service.Reconciler,
	invalidator cache.Invalidator,
	publisher events.Publisher,
	health HealthChecker,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		verifier:    verifier,
		reconciler:  reconciler,
		invalidator: invalidator,
		publisher:   publisher,
		health:      health,
		logger:      logger,
	}
}
