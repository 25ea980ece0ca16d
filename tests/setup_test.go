//nolint:errcheck // unchecked errors are acceptable in test files
package tests

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iamciscoo/tisco-payments/internal/cache"
	"github.com/iamciscoo/tisco-payments/internal/config"
	"github.com/iamciscoo/tisco-payments/internal/events"
	"github.com/iamciscoo/tisco-payments/internal/handlers"
	"github.com/iamciscoo/tisco-payments/internal/repository/mocks"
	"github.com/iamciscoo/tisco-payments/internal/service"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-webhook-secret"

// TestServer wires the full webhook pipeline over httptest with mocked
// repositories, so the end-to-end scenarios run hermetically.
type TestServer struct {
	Server       *httptest.Server
	Transactions *mocks.MockTransactionRepository
	Orders       *mocks.MockOrderRepository
	Logs         *mocks.MockPaymentLogRepository
	t            *testing.T
}

func testConfig() *config.Config {
	return &config.Config{
		Webhook: config.WebhookConfig{
			Secret:       testSecret,
			APIKey:       "test-api-key",
			ReplayWindow: 300 * time.Second,
			Environment:  "test",
		},
		RateLimit: config.RateLimitConfig{RPS: 1000, Burst: 1000},
		Logger:    config.LoggerConfig{Level: "error"},
	}
}

// SetupTest creates a test server with mocked repositories behind the real
// router, middleware chain and reconciliation service.
func SetupTest(t *testing.T) *TestServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	transactions := mocks.NewMockTransactionRepository(t)
	orders := mocks.NewMockOrderRepository(t)
	logs := mocks.NewMockPaymentLogRepository(t)

	reconciler := service.NewReconcileService(transactions, orders, logs, logger)
	router := handlers.NewRouter(reconciler, cache.Noop{}, events.Noop{}, nil, testConfig(), logger)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &TestServer{
		Server:       server,
		Transactions: transactions,
		Orders:       orders,
		Logs:         logs,
		t:            t,
	}
}

// SetupDisabledTest creates a test server without a configured data store;
// the webhook endpoint must answer 503.
func SetupDisabledTest(t *testing.T) *TestServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := handlers.NewRouter(nil, cache.Noop{}, events.Noop{}, nil, testConfig(), logger)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &TestServer{Server: server, t: t}
}

// Sign computes the compound signature header for a body.
func Sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// PostWebhook delivers a webhook with the given headers.
func (ts *TestServer) PostWebhook(t *testing.T, body []byte, headers map[string]string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+handlers.WebhookPath, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := ts.Server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

// PostSigned delivers a webhook carrying a valid HMAC signature.
func (ts *TestServer) PostSigned(t *testing.T, body []byte) *http.Response {
	t.Helper()
	return ts.PostWebhook(t, body, map[string]string{"x-signature": Sign(body)})
}
