// Package password hashes and verifies local credentials with bcrypt.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const defaultCost = 12

// Hasher wraps bcrypt with an injectable cost so tests can run at the
// minimum cost instead of ~250ms per hash.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher with the production cost.
func NewHasher() *Hasher {
	return &Hasher{cost: defaultCost}
}

// NewHasherWithCost returns a Hasher with a custom cost. Intended for
// tests; do not use low costs in production.
func NewHasherWithCost(cost int) *Hasher {
	return &Hasher{cost: cost}
}

// Hash hashes a plaintext password. Passwords over 72 bytes are rejected
// because bcrypt would silently truncate them.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("password must be 72 bytes or fewer")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches the stored hash.
func (h *Hasher) Verify(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
