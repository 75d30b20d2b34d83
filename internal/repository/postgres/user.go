package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/st-angelo/webarena-auth/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

const (
	publicColumns = `id, handle, email, photo, role, active, password_changed_at, created_at, updated_at`
	secretColumns = `password_hash, password_reset_token, password_reset_expires`
)

// UserRepository persists users in PostgreSQL.
type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

func selectColumns(withSecrets bool) string {
	if withSecrets {
		return publicColumns + ", " + secretColumns
	}
	return publicColumns
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string, withSecrets bool) (model.User, error) {
	query := `SELECT ` + selectColumns(withSecrets) + `
			  FROM users WHERE email = $1 AND active`

	user, err := scanUser(r.db.QueryRow(ctx, query, normalizeEmail(email)), withSecrets)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID, withSecrets bool) (model.User, error) {
	query := `SELECT ` + selectColumns(withSecrets) + `
			  FROM users WHERE id = $1 AND active`

	user, err := scanUser(r.db.QueryRow(ctx, query, id), withSecrets)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

// FindByResetToken returns the active user holding digest, provided the
// token is still valid at now. The expiry instant itself is valid.
func (r *UserRepository) FindByResetToken(ctx context.Context, digest string, now time.Time) (model.User, error) {
	if digest == "" {
		return model.User{}, model.ErrNotFound
	}

	query := `SELECT ` + selectColumns(true) + `
			  FROM users
			  WHERE password_reset_token = $1 AND password_reset_expires >= $2 AND active`

	user, err := scanUser(r.db.QueryRow(ctx, query, digest, now), true)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to get user by reset token: %w", err)
	}

	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	user.Email = normalizeEmail(user.Email)
	if err := user.Validate(); err != nil {
		return model.User{}, model.ErrValidation.WithCause(err).WithMessage(err.Error())
	}
	if user.PasswordHash == "" {
		return model.User{}, model.ErrValidation.WithMessage("Please provide a password.")
	}

	query := `INSERT INTO users (id, handle, email, photo, role, active, password_hash,
			  password_changed_at, password_reset_token, password_reset_expires, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10, $11, $12)
			  RETURNING ` + selectColumns(true)

	saved, err := scanUser(r.db.QueryRow(ctx, query,
		user.ID, user.Handle, user.Email, user.Photo, string(user.Role), user.Active, user.PasswordHash,
		user.PasswordChangedAt, user.PasswordResetToken, user.PasswordResetExpiry, user.CreatedAt, user.UpdatedAt,
	), true)
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, model.ErrDuplicate
		}
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	return saved, nil
}

// Save writes every mutable field of user. Secrets left empty keep their
// stored values, so users loaded without secrets can be saved back. The
// reset digest and expiry are dropped only with opts.ClearResetToken.
func (r *UserRepository) Save(ctx context.Context, user model.User, opts model.SaveOptions) (model.User, error) {
	user.Email = normalizeEmail(user.Email)
	if !opts.SkipValidation {
		if err := user.Validate(); err != nil {
			return model.User{}, model.ErrValidation.WithCause(err).WithMessage(err.Error())
		}
	}

	query := `UPDATE users SET
			  handle = $2, email = $3, photo = $4, role = $5, active = $6,
			  password_hash = COALESCE(NULLIF($7, ''), password_hash),
			  password_changed_at = $8,
			  password_reset_token = CASE WHEN $12 THEN NULL
			      ELSE COALESCE(NULLIF($9, ''), password_reset_token) END,
			  password_reset_expires = CASE WHEN $12 THEN NULL
			      ELSE COALESCE($10, password_reset_expires) END,
			  updated_at = $11
			  WHERE id = $1
			  RETURNING ` + selectColumns(true)

	saved, err := scanUser(r.db.QueryRow(ctx, query,
		user.ID, user.Handle, user.Email, user.Photo, string(user.Role), user.Active, user.PasswordHash,
		user.PasswordChangedAt, user.PasswordResetToken, user.PasswordResetExpiry, time.Now().UTC(),
		opts.ClearResetToken,
	), true)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, model.ErrNotFound
		}
		if isUniqueViolation(err) {
			return model.User{}, model.ErrDuplicate
		}
		return model.User{}, fmt.Errorf("failed to save user: %w", err)
	}

	return saved, nil
}

func (r *UserRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func scanUser(row pgx.Row, withSecrets bool) (model.User, error) {
	var (
		user       model.User
		role       string
		resetToken *string
	)

	dest := []any{
		&user.ID, &user.Handle, &user.Email, &user.Photo, &role, &user.Active,
		&user.PasswordChangedAt, &user.CreatedAt, &user.UpdatedAt,
	}
	if withSecrets {
		dest = append(dest, &user.PasswordHash, &resetToken, &user.PasswordResetExpiry)
	}

	if err := row.Scan(dest...); err != nil {
		return model.User{}, err
	}

	user.Role = model.Role(role)
	if resetToken != nil {
		user.PasswordResetToken = *resetToken
	}

	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
