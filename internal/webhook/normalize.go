package webhook

import "strings"

// CanonicalStatus is the bucket a raw gateway status string maps into.
type CanonicalStatus string

const (
	StatusSuccess   CanonicalStatus = "success"
	StatusPending   CanonicalStatus = "pending"
	StatusCancelled CanonicalStatus = "cancelled"
	StatusFailed    CanonicalStatus = "failed"
	StatusUnknown   CanonicalStatus = "unknown"
)

// NormalizedEvent is the canonical view of a gateway callback, extracted
// from payloads whose field names and nesting vary across message shapes.
type NormalizedEvent struct {
	Reference     string
	GatewayID     string
	RawStatus     string
	FailureReason string
	Status        CanonicalStatus
}

// Extraction rules, evaluated in priority order: the first non-empty value
// wins. Each rule is a path into the payload tree.
var (
	referencePaths = [][]string{
		{"order_id"},
		{"data", "order_id"},
		{"reference"},
		{"transaction_reference"},
	}
	gatewayIDPaths = [][]string{
		{"transaction_id"},
		{"data", "transaction_id"},
		{"gateway_transaction_id"},
	}
	statusPaths = [][]string{
		{"status"},
		{"data", "status"},
		{"payment_status"},
		{"data", "payment_status"},
		{"event_type"},
		{"event"},
		{"type"},
	}
	failureReasonPaths = [][]string{
		{"failure_reason"},
		{"data", "failure_reason"},
		{"reason"},
		{"message"},
	}
)

// Status vocabularies per gateway. Raw values are upper-cased before lookup.
var (
	successStatuses = stringSet("SUCCESS", "SUCCEEDED", "COMPLETED", "APPROVED", "PAID", "SETTLED", "SUCCESSFUL")
	pendingStatuses = stringSet("PENDING", "PROCESSING", "AWAITING", "QUEUED")
	cancelStatuses  = stringSet("CANCELLED", "CANCELED")
	failedStatuses  = stringSet("FAILED", "DECLINED", "ERROR", "REJECTED", "TIMEOUT")
)

// Normalize extracts the canonical {reference, gateway id, status} triple
// from a parsed payload of unknown shape.
func Normalize(payload map[string]any) NormalizedEvent {
	raw := strings.ToUpper(firstString(payload, statusPaths))

	return NormalizedEvent{
		Reference:     firstString(payload, referencePaths),
		GatewayID:     firstString(payload, gatewayIDPaths),
		RawStatus:     raw,
		FailureReason: firstString(payload, failureReasonPaths),
		Status:        bucketStatus(raw),
	}
}

func bucketStatus(raw string) CanonicalStatus {
	switch {
	case successStatuses[raw]:
		return StatusSuccess
	case pendingStatuses[raw]:
		return StatusPending
	case cancelStatuses[raw]:
		return StatusCancelled
	case failedStatuses[raw]:
		return StatusFailed
	default:
		return StatusUnknown
	}
}

func firstString(payload map[string]any, paths [][]string) string {
	for _, path := range paths {
		if value := lookupString(payload, path); value != "" {
			return value
		}
	}
	return ""
}

func lookupString(tree map[string]any, path []string) string {
	current := any(tree)
	for _, key := range path {
		node, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		current = node[key]
	}

	value, ok := current.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

func stringSet(values ...string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
