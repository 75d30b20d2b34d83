package model

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
)

// UserStore defines persistence operations for users.
// Every read skips inactive users. Reads without withSecrets leave the
// secret fields empty, and Save keeps stored secrets that arrive empty.
type UserStore interface {
	FindByEmail(ctx context.Context, email string, withSecrets bool) (User, error)
	FindByID(ctx context.Context, id uuid.UUID, withSecrets bool) (User, error)
	FindByResetToken(ctx context.Context, digest string, now time.Time) (User, error)
	Create(ctx context.Context, user User) (User, error)
	Save(ctx context.Context, user User, opts SaveOptions) (User, error)
	Ping(ctx context.Context) error
}

// SaveOptions tunes a Save call.
type SaveOptions struct {
	SkipValidation bool
	// ClearResetToken drops the stored reset digest and expiry.
	ClearResetToken bool
}

// User represents a stored user with authentication material.
type User struct {
	ID                  uuid.UUID
	Handle              string
	Email               string
	Photo               string
	Role                Role
	Active              bool
	PasswordHash        string
	PasswordChangedAt   *time.Time
	PasswordResetToken  string
	PasswordResetExpiry *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NewUser builds a user ready for its first insert. PasswordChangedAt stays unset.
func NewUser(handle, email string, role Role, passwordHash string, now time.Time) User {
	if role == "" {
		role = RolePlayer
	}
	return User{
		ID:           uuid.New(),
		Handle:       handle,
		Email:        email,
		Role:         role,
		Active:       true,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Validate checks the persisted shape of the user.
func (u User) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Handle, validation.Required, validation.Length(1, 64)),
		validation.Field(&u.Email, validation.Required, validation.Length(3, 254), is.EmailFormat),
		validation.Field(&u.Role, validation.Required, validation.By(validateRole)),
	)
}

// ApplyPasswordChange stores a new password hash on an existing user and stamps the change.
func ApplyPasswordChange(u *User, hash string, now time.Time) {
	u.PasswordHash = hash
	u.PasswordChangedAt = &now
}

// SetResetToken records a reset digest and its expiry together.
func SetResetToken(u *User, digest string, expiresAt time.Time) {
	u.PasswordResetToken = digest
	u.PasswordResetExpiry = &expiresAt
}

// ClearResetToken drops the reset digest and its expiry together.
func ClearResetToken(u *User) {
	u.PasswordResetToken = ""
	u.PasswordResetExpiry = nil
}

// HasResetToken reports whether a reset digest is on record.
func (u User) HasResetToken() bool {
	return u.PasswordResetToken != "" && u.PasswordResetExpiry != nil
}

// ChangedPasswordAfter reports whether the password changed after a token
// issued at issuedAt. Both sides are compared at second granularity.
func (u User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return issuedAt.Unix() < u.PasswordChangedAt.Unix()
}

// PublicUser is the transport shape of a user.
type PublicUser struct {
	ID     string `json:"id"`
	Handle string `json:"handle"`
	Email  string `json:"email"`
	Photo  string `json:"photo,omitempty"`
	Role   Role   `json:"role"`
}

// NewPublicUser maps a user to its public shape. Secret fields never cross this boundary.
func NewPublicUser(u User) PublicUser {
	return PublicUser{
		ID:     u.ID.String(),
		Handle: u.Handle,
		Email:  u.Email,
		Photo:  u.Photo,
		Role:   u.Role,
	}
}
