package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// checksum computes the hex-encoded SHA-256 digest of a string. Order,
// Trade, and MarketBar integrity hashes are all checksums over a fixed
// concatenation of their immutable fields.
func checksum(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}
