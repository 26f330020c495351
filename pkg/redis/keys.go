package redis

import "strings"

const keyNamespace = "dh"

// Keyspace builds the namespaced keys shared by every replica. Empty parts
// are skipped.
type Keyspace struct{}

func (Keyspace) IdempotencyKey(scope, id string) string {
	return buildKey("idempotency", scope, id)
}

func (Keyspace) RateLimitKey(scope string) string {
	return buildKey("rate_limit", scope)
}

// CartKey holds a session's serialized cart.
func (Keyspace) CartKey(sessionID string) string {
	return buildKey("cart", sessionID)
}

// CheckoutLockKey marks a session's checkout as in flight.
func (Keyspace) CheckoutLockKey(sessionID string) string {
	return buildKey("checkout", "lock", sessionID)
}

// ReportGenerationKey counts invalidations of the operator report.
func (Keyspace) ReportGenerationKey() string {
	return buildKey("report", "generation")
}

func buildKey(parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteByte(':')
			b.WriteString(part)
		}
	}
	return b.String()
}
