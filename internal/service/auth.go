package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"

	"github.com/st-angelo/webarena-auth/internal/logger"
	"github.com/st-angelo/webarena-auth/internal/metrics"
	"github.com/st-angelo/webarena-auth/internal/model"
	"github.com/st-angelo/webarena-auth/internal/reset"
)

// Flow names used for logging and metrics.
const (
	FlowSignup         = "signup"
	FlowLogin          = "login"
	FlowForgotPassword = "forgot_password"
	FlowResetPassword  = "reset_password"
	FlowUpdatePassword = "update_password"
	FlowAuthenticate   = "authenticate"
)

// Password length bounds. bcrypt ignores input past 72 bytes.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// ResetEmailSubject is the subject line of the password reset email.
const ResetEmailSubject = "Your password reset token (valid for 10 min)"

// Session is the result of every flow that logs a user in.
type Session struct {
	Token string
	User  model.User
}

// SignupInput is the payload of Signup.
type SignupInput struct {
	Handle          string
	Email           string
	Password        string
	PasswordConfirm string
	Role            string
}

// Validate checks the signup payload. Admin cannot be self-assigned.
func (in SignupInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Handle, validation.Required, validation.Length(1, 64)),
		validation.Field(&in.Email, validation.Required, is.EmailFormat),
		validation.Field(&in.Password, validation.Required, validation.Length(MinPasswordLength, MaxPasswordLength)),
		validation.Field(&in.PasswordConfirm, validation.Required,
			validation.In(in.Password).Error("passwords are not the same")),
		validation.Field(&in.Role,
			validation.In(string(model.RoleCreator), string(model.RoleModerator), string(model.RolePlayer)).
				Error("must be one of creator, moderator, player")),
	)
}

// LoginInput is the payload of Login.
type LoginInput struct {
	Email    string
	Password string
}

// ResetPasswordInput carries the new password for ResetPassword.
type ResetPasswordInput struct {
	Password string
}

func (in ResetPasswordInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Password, validation.Required, validation.Length(MinPasswordLength, MaxPasswordLength)),
	)
}

// UpdatePasswordInput is the payload of UpdatePassword.
type UpdatePasswordInput struct {
	CurrentPassword string
	NewPassword     string
}

func (in UpdatePasswordInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.CurrentPassword, validation.Required),
		validation.Field(&in.NewPassword, validation.Required, validation.Length(MinPasswordLength, MaxPasswordLength)),
	)
}

// Auth runs the credential flows: signup, login, password reset and
// update, and authentication of session tokens.
type Auth struct {
	users     model.UserStore
	hasher    model.PasswordHasher
	tokens    model.TokenIssuer
	resets    *reset.Manager
	notifier  model.Notifier
	publicURL string
	metrics   *metrics.Metrics
	logger    *logger.Logger
	now       func() time.Time
}

// AuthOption configures Auth.
type AuthOption func(*Auth)

// WithMetrics records every flow on m.
func WithMetrics(m *metrics.Metrics) AuthOption {
	return func(a *Auth) {
		a.metrics = m
	}
}

// WithClock replaces the time source of Auth and its reset manager.
func WithClock(now func() time.Time) AuthOption {
	return func(a *Auth) {
		a.now = now
		a.resets = a.resets.WithClock(now)
	}
}

func NewAuth(
	users model.UserStore,
	hasher model.PasswordHasher,
	tokens model.TokenIssuer,
	resets *reset.Manager,
	notifier model.Notifier,
	publicURL string,
	logger *logger.Logger,
	opts ...AuthOption,
) *Auth {
	a := &Auth{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		resets:    resets,
		notifier:  notifier,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Signup creates a user and logs them in.
func (a *Auth) Signup(ctx context.Context, in SignupInput) (s Session, err error) {
	defer a.observe(FlowSignup, time.Now(), &err)

	a.logger.Debug("Auth service: starting signup",
		"email", in.Email)

	if vErr := in.Validate(); vErr != nil {
		return Session{}, invalidInput(vErr)
	}

	role, err := model.ParseRole(in.Role)
	if err != nil {
		return Session{}, invalidInput(err)
	}

	hash, err := a.hasher.Hash(ctx, in.Password)
	if err != nil {
		return Session{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := a.users.Create(ctx, model.NewUser(in.Handle, in.Email, role, hash, a.now()))
	if err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			a.logger.Info("Auth service: email already taken",
				"email", in.Email)
			return Session{}, model.ErrEmailTaken
		}
		a.logger.Error("Auth service: failed to create user",
			"email", in.Email,
			"error", err.Error())
		return Session{}, fmt.Errorf("failed to create user: %w", err)
	}

	a.logger.Info("Auth service: user signed up",
		"user_id", user.ID.String(),
		"role", string(user.Role))

	return a.startSession(user)
}

// Login checks an email and password pair. An unknown email and a wrong
// password fail the same way.
func (a *Auth) Login(ctx context.Context, in LoginInput) (s Session, err error) {
	defer a.observe(FlowLogin, time.Now(), &err)

	if in.Email == "" || in.Password == "" {
		return Session{}, model.ErrValidation.WithMessage("Please provide email and password!")
	}

	user, err := a.users.FindByEmail(ctx, in.Email, true)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			a.logger.Info("Auth service: login for unknown email")
			return Session{}, model.ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	ok, err := a.hasher.Verify(ctx, in.Password, user.PasswordHash)
	if err != nil {
		a.logger.Error("Auth service: failed to verify password",
			"user_id", user.ID.String(),
			"error", err.Error())
		return Session{}, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		a.logger.Info("Auth service: wrong password",
			"user_id", user.ID.String())
		return Session{}, model.ErrInvalidCredentials
	}

	a.logger.Info("Auth service: user logged in",
		"user_id", user.ID.String())

	return a.startSession(user)
}

// ForgotPassword stores a fresh reset digest on the user and emails the
// plaintext secret. When the email cannot be sent the digest is cleared
// again before ErrDelivery is returned.
func (a *Auth) ForgotPassword(ctx context.Context, email string) (err error) {
	defer a.observe(FlowForgotPassword, time.Now(), &err)

	if email == "" {
		return model.ErrValidation.WithMessage("Please provide an email address.")
	}

	user, err := a.users.FindByEmail(ctx, email, false)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrSubjectNotFound
		}
		return fmt.Errorf("failed to get user by email: %w", err)
	}

	secret, err := a.resets.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate reset secret: %w", err)
	}

	model.SetResetToken(&user, secret.Digest, secret.ExpiresAt)
	if _, err := a.users.Save(ctx, user, model.SaveOptions{SkipValidation: true}); err != nil {
		a.logger.Error("Auth service: failed to store reset token",
			"user_id", user.ID.String(),
			"error", err.Error())
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	sendErr := a.notifier.Send(ctx, model.Message{
		To:      user.Email,
		Subject: ResetEmailSubject,
		Body:    a.resetEmailBody(secret.Plaintext),
	})
	if sendErr == nil {
		a.logger.Info("Auth service: reset token sent",
			"user_id", user.ID.String())
		return nil
	}

	a.logger.Error("Auth service: failed to send reset email",
		"user_id", user.ID.String(),
		"error", sendErr.Error())

	// The rollback must finish even when the caller has gone away.
	model.ClearResetToken(&user)
	rollback := model.SaveOptions{SkipValidation: true, ClearResetToken: true}
	if _, rbErr := a.users.Save(context.WithoutCancel(ctx), user, rollback); rbErr != nil {
		a.logger.Error("Auth service: failed to clear reset token",
			"user_id", user.ID.String(),
			"error", rbErr.Error())
		return model.ErrDelivery.WithCause(errors.Join(sendErr, rbErr))
	}

	return model.ErrDelivery.WithCause(sendErr)
}

// ResetPassword consumes a reset secret and sets a new password.
func (a *Auth) ResetPassword(ctx context.Context, secret string, in ResetPasswordInput) (s Session, err error) {
	defer a.observe(FlowResetPassword, time.Now(), &err)

	if vErr := in.Validate(); vErr != nil {
		return Session{}, invalidInput(vErr)
	}

	now := a.now()
	user, err := a.users.FindByResetToken(ctx, reset.Digest(secret), now)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return Session{}, model.ErrInvalidOrExpiredResetToken
		}
		return Session{}, fmt.Errorf("failed to get user by reset token: %w", err)
	}

	if !a.resets.Validate(secret, user.PasswordResetToken, user.PasswordResetExpiry, now) {
		return Session{}, model.ErrInvalidOrExpiredResetToken
	}

	hash, err := a.hasher.Hash(ctx, in.Password)
	if err != nil {
		return Session{}, fmt.Errorf("failed to hash password: %w", err)
	}

	model.ApplyPasswordChange(&user, hash, now)
	model.ClearResetToken(&user)

	saved, err := a.users.Save(ctx, user, model.SaveOptions{ClearResetToken: true})
	if err != nil {
		a.logger.Error("Auth service: failed to save reset password",
			"user_id", user.ID.String(),
			"error", err.Error())
		return Session{}, fmt.Errorf("failed to save user: %w", err)
	}

	a.logger.Info("Auth service: password reset",
		"user_id", saved.ID.String())

	return a.startSession(saved)
}

// UpdatePassword changes the password of an authenticated user after
// checking the current one.
func (a *Auth) UpdatePassword(ctx context.Context, userID uuid.UUID, in UpdatePasswordInput) (s Session, err error) {
	defer a.observe(FlowUpdatePassword, time.Now(), &err)

	if vErr := in.Validate(); vErr != nil {
		return Session{}, invalidInput(vErr)
	}

	user, err := a.users.FindByID(ctx, userID, true)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return Session{}, model.ErrSessionSubjectNotFound
		}
		return Session{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	ok, err := a.hasher.Verify(ctx, in.CurrentPassword, user.PasswordHash)
	if err != nil {
		return Session{}, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		a.logger.Info("Auth service: wrong current password",
			"user_id", user.ID.String())
		return Session{}, model.ErrInvalidCredentials.WithMessage("Your current password is wrong.")
	}

	hash, err := a.hasher.Hash(ctx, in.NewPassword)
	if err != nil {
		return Session{}, fmt.Errorf("failed to hash password: %w", err)
	}

	model.ApplyPasswordChange(&user, hash, a.now())
	saved, err := a.users.Save(ctx, user, model.SaveOptions{})
	if err != nil {
		return Session{}, fmt.Errorf("failed to save user: %w", err)
	}

	a.logger.Info("Auth service: password updated",
		"user_id", saved.ID.String())

	return a.startSession(saved)
}

// Authenticate resolves a session token to its user. Tokens issued before
// the user's last password change are rejected.
func (a *Auth) Authenticate(ctx context.Context, token string) (u model.User, err error) {
	defer a.observe(FlowAuthenticate, time.Now(), &err)

	if token == "" {
		return model.User{}, model.ErrMissingToken
	}

	claims, err := a.tokens.Verify(token)
	if err != nil {
		return model.User{}, err
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.User{}, model.ErrInvalidToken.WithCause(err)
	}

	user, err := a.users.FindByID(ctx, id, false)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, model.ErrSessionSubjectNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	if user.ChangedPasswordAfter(claims.IssuedAt) {
		a.logger.Debug("Auth service: token predates password change",
			"user_id", user.ID.String())
		return model.User{}, model.ErrStaleToken
	}

	return user, nil
}

func (a *Auth) startSession(user model.User) (Session, error) {
	token, err := a.tokens.Issue(user.ID.String())
	if err != nil {
		return Session{}, fmt.Errorf("failed to issue session token: %w", err)
	}
	return Session{Token: token, User: user}, nil
}

func (a *Auth) resetEmailBody(secret string) string {
	url := fmt.Sprintf("%s/resetPassword/%s", a.publicURL, secret)
	return fmt.Sprintf("Forgot your password? Submit a PATCH request with your new password to: %s.\n"+
		"If you didn't forget your password, please ignore this email!", url)
}

func (a *Auth) observe(flow string, started time.Time, err *error) {
	a.metrics.ObserveFlow(flow, started, *err)
}

func invalidInput(err error) error {
	return model.ErrValidation.WithCause(err).WithMessage("Invalid input data. " + err.Error())
}
