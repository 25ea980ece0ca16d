// Package webhook implements the gateway-facing half of payment
// reconciliation: authenticating raw callback requests and normalizing
// their variable payload shapes.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// SignatureVerifier validates the authenticity and freshness of inbound
// webhook requests using a shared-secret HMAC-SHA256 scheme with an optional
// static API key fallback.
type SignatureVerifier struct {
	now          func() time.Time
	logger       *slog.Logger
	secret       string
	apiKey       string
	replayWindow time.Duration
	production   bool
}

// NewSignatureVerifier creates a verifier. An empty secret fails closed when
// production is true; outside production it fails open with a warning so
// local development works without gateway credentials.
func NewSignatureVerifier(secret, apiKey string, replayWindow time.Duration, production bool, logger *slog.Logger) *SignatureVerifier {
	return &SignatureVerifier{
		secret:       secret,
		apiKey:       apiKey,
		replayWindow: replayWindow,
		production:   production,
		logger:       logger,
		now:          time.Now,
	}
}

// Authenticate reports whether a request is trusted: either the HMAC
// signature over the raw body verifies, or the provided static API key
// matches. Either success is sufficient.
func (v *SignatureVerifier) Authenticate(body []byte, signatureHeader, apiKeyHeader string) bool {
	if v.Verify(body, signatureHeader) {
		return true
	}
	return v.VerifyAPIKey(apiKeyHeader)
}

// Verify checks an HMAC-SHA256 digest over the exact raw body bytes.
//
// The header may be the compound provider format "t=<unix-ts>,v1=<hex-hmac>";
// any other value is treated as the bare digest for compatibility with
// providers that send only the hash. Digests are accepted hex- or
// base64-encoded and compared in constant time.
func (v *SignatureVerifier) Verify(body []byte, header string) bool {
	if v.secret == "" {
		if v.production {
			v.logger.Error("webhook secret not configured; rejecting request")
			return false
		}
		v.logger.Warn("webhook secret not configured; accepting unverified request outside production")
		return true
	}

	if header == "" {
		return false
	}

	digest, timestamp, hasTimestamp := parseSignatureHeader(header)

	if hasTimestamp {
		skew := v.now().Sub(time.Unix(timestamp, 0))
		if skew < 0 {
			skew = -skew
		}
		if skew > v.replayWindow {
			v.logger.Warn("webhook signature timestamp outside replay window",
				"skew", skew.String(),
				"window", v.replayWindow.String(),
			)
			return false
		}
	} else {
		// Some providers omit the timestamp; rejecting them would break
		// compatibility, so freshness is only enforced when present.
		v.logger.Warn("webhook signature carries no timestamp; replay protection not enforced")
	}

	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write(body)
	expected := mac.Sum(nil)

	if decoded, err := hex.DecodeString(digest); err == nil && hmac.Equal(decoded, expected) {
		return true
	}
	if decoded, err := base64.StdEncoding.DecodeString(digest); err == nil && hmac.Equal(decoded, expected) {
		return true
	}

	return false
}

// VerifyAPIKey compares a provider-issued static credential in constant time.
func (v *SignatureVerifier) VerifyAPIKey(provided string) bool {
	if v.apiKey == "" || provided == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(v.apiKey), []byte(provided)) == 1
}

// parseSignatureHeader splits the compound "t=...,v1=..." format. When the
// header does not match it, the whole value is returned as the digest.
func parseSignatureHeader(header string) (digest string, timestamp int64, hasTimestamp bool) {
	if !strings.Contains(header, "v1=") {
		return header, 0, false
	}

	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		switch {
		case strings.HasPrefix(part, "t="):
			ts, err := strconv.ParseInt(strings.TrimPrefix(part, "t="), 10, 64)
			if err == nil {
				timestamp = ts
				hasTimestamp = true
			}
		case strings.HasPrefix(part, "v1="):
			digest = strings.TrimPrefix(part, "v1=")
		}
	}

	if digest == "" {
		return header, 0, false
	}
	return digest, timestamp, hasTimestamp
}
