package logging

import (
	"log/slog"
	"sort"
	"strings"
)

// RedactedValue is the canonical placeholder used for sensitive fields in logs.
const RedactedValue = "[REDACTED]"

// redactionAllowlist is the set of keys safe to log in the clear: the base
// log-shape attributes plus the treasury domain's own identifiers.
// Proposal, treasury, and emergency-action ids — and the signer/executor
// names attached to an action — are opaque labels, not secrets, so they are
// allowlisted even though callers usually reach MaskField only for the one
// field in this domain that actually is sensitive: a signature's payload.
var redactionAllowlist = map[string]struct{}{
	"service":     {},
	"env":         {},
	"message":     {},
	"severity":    {},
	"timestamp":   {},
	"error":       {},
	"reason":      {},
	"component":   {},
	"proposal_id": {},
	"treasury_id": {},
	"action_id":   {},
	"signer":      {},
	"executor":    {},
}

// forcedSensitiveKeys are redacted unconditionally, even if a future change
// to redactionAllowlist above accidentally admits one of them. Signature
// payloads are the only cryptographic material this system ever logs (the
// spec treats signature_bytes as opaque, unverified bytes); they must never
// reach a log sink even under an allowlisted key name.
var forcedSensitiveKeys = map[string]struct{}{
	"signature_bytes": {},
	"raw_signature":   {},
}

// IsAllowlisted reports whether the provided key is exempt from automatic redaction.
func IsAllowlisted(key string) bool {
	normalized := strings.ToLower(strings.TrimSpace(key))
	_, ok := redactionAllowlist[normalized]
	return ok
}

// isForcedSensitive reports whether key must be redacted regardless of the allowlist.
func isForcedSensitive(key string) bool {
	normalized := strings.ToLower(strings.TrimSpace(key))
	_, ok := forcedSensitiveKeys[normalized]
	return ok
}

// RedactionAllowlist returns a sorted copy of the log keys that are allowed to be emitted
// without redaction. Tests use this to ensure sensitive keys remain masked.
func RedactionAllowlist() []string {
	keys := make([]string, 0, len(redactionAllowlist))
	for key := range redactionAllowlist {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// MaskValue returns the canonical redacted placeholder for non-empty values. Empty values
// are returned unchanged to avoid introducing noise in logs.
func MaskValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return value
	}
	return RedactedValue
}

// MaskField returns a slog.Attr that redacts the supplied value unless the
// key is explicitly allowlisted, and always redacts a forced-sensitive key
// (signature_bytes, raw_signature) no matter what the allowlist says. The
// original key casing is preserved for readability.
func MaskField(key, value string) slog.Attr {
	if strings.TrimSpace(value) == "" {
		return slog.String(key, value)
	}
	if isForcedSensitive(key) {
		return slog.String(key, RedactedValue)
	}
	if IsAllowlisted(key) {
		return slog.String(key, value)
	}
	return slog.String(key, RedactedValue)
}
