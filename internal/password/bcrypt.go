// Package password hashes and verifies user passwords with bcrypt.
//
// Hashing is CPU-bound, so every Hash and Verify call takes a slot from a
// bounded lane before running. Request goroutines that cannot get a slot
// wait (or give up when their context ends) instead of piling more work
// onto the scheduler.
package password

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"

	"github.com/st-angelo/webarena-auth/internal/model"
)

var _ model.PasswordHasher = (*Hasher)(nil)

// DefaultCost is the bcrypt work factor for new hashes.
const DefaultCost = 12

// Hasher implements adaptive password hashing.
type Hasher struct {
	cost int
	lane *semaphore.Weighted
}

// Option configures a Hasher.
type Option func(*Hasher)

// WithCost overrides the bcrypt work factor.
func WithCost(cost int) Option {
	return func(h *Hasher) {
		h.cost = cost
	}
}

// WithConcurrency bounds how many hashes run at once. Values < 1 mean GOMAXPROCS.
func WithConcurrency(n int) Option {
	return func(h *Hasher) {
		if n < 1 {
			n = runtime.GOMAXPROCS(0)
		}
		h.lane = semaphore.NewWeighted(int64(n))
	}
}

// NewHasher creates a Hasher with cost 12 and GOMAXPROCS lane slots.
func NewHasher(opts ...Option) *Hasher {
	h := &Hasher{cost: DefaultCost}
	WithConcurrency(0)(h)
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Hash returns a self-describing bcrypt digest ($2a$<cost>$<salt+hash>).
func (h *Hasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if plaintext == "" {
		return "", model.ErrValidation.WithMessage("Password cannot be empty.")
	}

	if err := h.lane.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("failed to acquire hashing slot: %w", err)
	}
	defer h.lane.Release(1)

	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", model.ErrValidation.WithMessage("Password is too long.").WithCause(err)
		}
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(digest), nil
}

// Verify compares plaintext with digest in constant time.
// A mismatch is (false, nil); a malformed digest is ErrCorruptCredential.
func (h *Hasher) Verify(ctx context.Context, plaintext, digest string) (bool, error) {
	if err := h.lane.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("failed to acquire hashing slot: %w", err)
	}
	defer h.lane.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, model.ErrCorruptCredential.WithCause(err)
	}
}

// Cost reports the work factor encoded in digest.
func Cost(digest string) (int, error) {
	cost, err := bcrypt.Cost([]byte(digest))
	if err != nil {
		return 0, model.ErrCorruptCredential.WithCause(err)
	}
	return cost, nil
}
