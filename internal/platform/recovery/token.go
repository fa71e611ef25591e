// Package recovery generates single-use password recovery tokens.
package recovery

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// TokenBytes is the number of random bytes in a token (256 bits).
// The hex encoding is 64 characters, matching the users.recovery_token column.
const TokenBytes = 32

// Generator produces hex-encoded random tokens.
type Generator struct {
	rand io.Reader
}

// NewGenerator creates a Generator backed by crypto/rand.
func NewGenerator() *Generator {
	return &Generator{rand: rand.Reader}
}

// Generate returns a new random token.
func (g *Generator) Generate() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := io.ReadFull(g.rand, b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
