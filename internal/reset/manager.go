// Package reset issues one-shot password reset secrets.
//
// Only the SHA-256 digest of a secret is ever persisted. The plaintext leaves
// the process once, inside the reset email.
package reset

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	// SecretBytes is the entropy of a reset secret (256 bits).
	SecretBytes = 32
	// DefaultTTL is how long a reset secret stays valid.
	DefaultTTL = 10 * time.Minute
)

// Secret is a freshly generated reset secret.
type Secret struct {
	Plaintext string
	Digest    string
	ExpiresAt time.Time
}

// Manager generates and validates reset secrets.
type Manager struct {
	ttl time.Duration
	now func() time.Time
}

// NewManager creates a Manager with the default 10 minute window.
func NewManager() *Manager {
	return &Manager{ttl: DefaultTTL, now: time.Now}
}

// WithClock returns a copy of m using now as its time source.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	c := *m
	c.now = now
	return &c
}

// Now returns the manager's current time.
func (m *Manager) Now() time.Time {
	return m.now()
}

// Generate creates a random secret, its digest and its absolute expiry.
func (m *Manager) Generate() (Secret, error) {
	buf := make([]byte, SecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return Secret{}, fmt.Errorf("failed to read random bytes: %w", err)
	}

	plaintext := hex.EncodeToString(buf)
	return Secret{
		Plaintext: plaintext,
		Digest:    Digest(plaintext),
		ExpiresAt: m.now().Add(m.ttl),
	}, nil
}

// Validate reports whether supplied matches storedDigest and now is not past
// storedExpiresAt. Callers cannot tell which check failed.
func (m *Manager) Validate(supplied, storedDigest string, storedExpiresAt *time.Time, now time.Time) bool {
	if supplied == "" || storedDigest == "" || storedExpiresAt == nil {
		return false
	}
	match := subtle.ConstantTimeCompare([]byte(Digest(supplied)), []byte(storedDigest)) == 1
	fresh := !now.After(*storedExpiresAt)
	return match && fresh
}

// Digest is the hex SHA-256 of a reset secret.
func Digest(plaintext string) string {
	h := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(h[:])
}
