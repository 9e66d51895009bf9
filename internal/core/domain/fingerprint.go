package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the deterministic content hash of a chunk's text,
// a lowercase hex SHA-256 digest. Identical text always yields the same
// fingerprint, which is what makes it usable for dedup and change
// detection across ingestion runs.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
