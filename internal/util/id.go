package util

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns a random hex string used for session tokens. Entity ids are
// store-generated sequence values and never come from here.
func NewID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
