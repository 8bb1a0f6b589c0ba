package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// hashKey maps key to a filesystem-safe name: the first 16 hex characters
// of its SHA-256.
func hashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:8])
}
