package domain

import (
	"encoding/hex"
	"strconv"

	"lukechampine.com/blake3"
)

// canonicalHash hashes a domain-prefixed, already-canonicalized payload with
// BLAKE3, matching the hashing primitive used elsewhere in this codebase's
// lineage for deterministic content addressing. Stable across process runs,
// unlike a native map/struct hash.
func canonicalHash(domain, payload string) string {
	sum := blake3.Sum256([]byte(domain + ":" + payload))
	return hex.EncodeToString(sum[:])
}

// formatAmount renders a float64 amount with a fixed precision so that
// hashing is stable regardless of how the value was originally parsed.
func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 8, 64)
}
