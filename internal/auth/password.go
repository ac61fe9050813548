// Package auth provides the security primitives for the HEAL server:
// bcrypt password hashing, signed session tokens, and the session middleware
// that gates protected routes.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor.
//
// Cost 12 takes roughly 250ms on current server hardware — negligible for a
// login, brutal for an offline brute-force. Tune it so hashing stays in the
// 200–300ms range as hardware improves.
const defaultCost = 12

// ErrPasswordMismatch is returned by Verify when the plaintext does not
// match the stored hash. Callers should treat it as "wrong password" and
// anything else as an internal failure.
var ErrPasswordMismatch = errors.New("auth: password mismatch")

// PasswordService provides bcrypt hashing and verification.
//
// bcrypt generates a random salt per hash and embeds it in the output, so
// there is no separate salt column: two users with the same password still
// get different hashes, and Verify decodes everything it needs from the
// stored string.
//
// It's a struct (not free functions) so the cost can be lowered in tests —
// cost 4 hashes in microseconds instead of a quarter second.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost (12).
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest creates a PasswordService with a custom cost.
// Use bcrypt.MinCost (4) in tests. Do NOT use in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes the given plaintext password with bcrypt.
//
// The output is self-contained ($2a$12$<salt><digest>) and goes straight
// into the password_hash column. The plaintext never appears in logs or
// error messages.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		// bcrypt silently truncates input beyond 72 bytes; reject instead.
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks whether a plaintext password matches a stored bcrypt hash.
// Returns nil on a match, ErrPasswordMismatch on a wrong password, and a
// different error only for corrupt hashes.
//
// bcrypt.CompareHashAndPassword compares in constant time, so callers get
// timing-attack safety for free.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
