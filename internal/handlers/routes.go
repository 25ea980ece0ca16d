package handlers

import (
	"log/slog"
	"net/http"

	"github.com/iamciscoo/tisco-payments/internal/api"
	"github.com/iamciscoo/tisco-payments/internal/cache"
	"github.com/iamciscoo/tisco-payments/internal/config"
	"github.com/iamciscoo/tisco-payments/internal/events"
	"github.com/iamciscoo/tisco-payments/internal/middleware"
	"github.com/iamciscoo/tisco-payments/internal/service"
	"github.com/iamciscoo/tisco-payments/internal/webhook"
)

// WebhookPath is the gateway callback endpoint.
const WebhookPath = "/api/payments/webhooks"

// NewRouter creates and configures the HTTP router with all routes and
// middleware. reconciler and health may be nil when the data store is not
// configured; the webhook endpoint then answers 503.
func NewRouter(
	reconciler service.Reconciler,
	invalidator cache.Invalidator,
	publisher events.Publisher,
	health HealthChecker,
	cfg *config.Config,
	logger *slog.Logger,
) http.Handler {
	verifier := webhook.NewSignatureVerifier(
		cfg.Webhook.Secret,
		cfg.Webhook.APIKey,
		cfg.Webhook.ReplayWindow,
		cfg.Webhook.Production(),
		logger,
	)

	handler := NewHandler(verifier, reconciler, invalidator, publisher, health, logger)

	mux := http.NewServeMux()
	api.RegisterDocsRoutes(mux)
	mux.HandleFunc("POST "+WebhookPath, handler.HandleWebhook)
	mux.HandleFunc("GET /health", handler.HandleHealth)
	mux.Handle("GET /metrics", middleware.MetricsHandler())

	var finalHandler http.Handler = mux

	limiter := middleware.NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	finalHandler = middleware.RateLimit(limiter, []string{WebhookPath}, logger)(finalHandler)

	finalHandler = middleware.Metrics()(finalHandler)

	return finalHandler
}
