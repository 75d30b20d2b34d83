package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/st-angelo/webarena-auth/internal/model"
)

var _ model.TokenIssuer = (*JWT)(nil)

// JWT implements TokenIssuer backed by symmetric HMAC.
// Each instance owns its secret and lifetime.
type JWT struct {
	secretKey []byte
	lifetime  time.Duration
	now       func() time.Time
}

// Option configures a JWT issuer.
type Option func(*JWT)

// WithClock replaces the issuer's time source.
func WithClock(now func() time.Time) Option {
	return func(j *JWT) {
		j.now = now
	}
}

// NewJWT creates a session token issuer with the provided secret key and lifetime.
func NewJWT(secretKey string, lifetime time.Duration, opts ...Option) *JWT {
	j := &JWT{
		secretKey: []byte(secretKey),
		lifetime:  lifetime,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Lifetime returns the configured token lifetime.
func (j *JWT) Lifetime() time.Duration {
	return j.lifetime
}

// Issue signs a token for subject with iat = now and exp = now + lifetime.
func (j *JWT) Issue(subject string) (string, error) {
	now := j.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(j.lifetime)),
	})

	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return tokenString, nil
}

// Verify checks signature and expiry and returns the subject and issue time.
func (j *JWT) Verify(tokenString string) (model.Claims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, j.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(j.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.Claims{}, model.ErrExpiredToken.WithCause(err)
		}
		return model.Claims{}, model.ErrInvalidToken.WithCause(err)
	}
	if !token.Valid || claims.Subject == "" || claims.IssuedAt == nil {
		return model.Claims{}, model.ErrInvalidToken
	}

	return model.Claims{
		Subject:  claims.Subject,
		IssuedAt: claims.IssuedAt.Time,
	}, nil
}

func (j *JWT) keyFunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
	}
	return j.secretKey, nil
}
