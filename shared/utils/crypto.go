package utils

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// NewOpaqueToken returns a random token suitable for refresh tokens and
// one-time action links. Only its hash is ever persisted.
func NewOpaqueToken() string {
	return uuid.New().String() + "-" + uuid.New().String()
}

// HashToken is deterministic so stored hashes can be looked up later.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
