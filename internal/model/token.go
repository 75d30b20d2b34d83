package model

import "time"

// Claims are the verified contents of a session token.
type Claims struct {
	Subject  string
	IssuedAt time.Time
}

// TokenIssuer signs and verifies session tokens.
type TokenIssuer interface {
	Issue(subject string) (string, error)
	Verify(token string) (Claims, error)
}
