package model

import "context"

// PasswordHasher turns plaintext passwords into self-describing digests.
type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, digest string) (bool, error)
}
