package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/st-angelo/webarena-auth/internal/model"
)

var (
	publicCols = []string{"id", "handle", "email", "photo", "role", "active", "password_changed_at", "created_at", "updated_at"}
	secretCols = append(append([]string{}, publicCols...), "password_hash", "password_reset_token", "password_reset_expires")
)

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func newMockRepo(t *testing.T) (*UserRepository, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return NewUserRepository(mock), mock
}

func TestUserRepository_FindByEmail(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	now := time.Now().UTC()
	changed := now.Add(-time.Hour)

	tests := []struct {
		name        string
		withSecrets bool
		setup       func(mock pgxmock.PgxPoolIface)
		wantErr     error
		check       func(t *testing.T, u model.User)
	}{
		{
			name: "without secrets",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT id, handle, email, photo, role, active, password_changed_at, created_at, updated_at\s+FROM users WHERE email = \$1 AND active`).
					WithArgs("megid@web-arena.io").
					WillReturnRows(mock.NewRows(publicCols).
						AddRow(id, "megid", "megid@web-arena.io", "", "player", true, &changed, now, now))
			},
			check: func(t *testing.T, u model.User) {
				assert.Equal(t, id, u.ID)
				assert.Equal(t, model.RolePlayer, u.Role)
				assert.Empty(t, u.PasswordHash)
				require.NotNil(t, u.PasswordChangedAt)
				assert.True(t, changed.Equal(*u.PasswordChangedAt))
			},
		},
		{
			name:        "with secrets",
			withSecrets: true,
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`password_hash, password_reset_token, password_reset_expires\s+FROM users WHERE email = \$1`).
					WithArgs("megid@web-arena.io").
					WillReturnRows(mock.NewRows(secretCols).
						AddRow(id, "megid", "megid@web-arena.io", "", "admin", true, nil, now, now, "$2a$12$hash", nil, nil))
			},
			check: func(t *testing.T, u model.User) {
				assert.Equal(t, "$2a$12$hash", u.PasswordHash)
				assert.Equal(t, model.RoleAdmin, u.Role)
				assert.Nil(t, u.PasswordChangedAt)
				assert.False(t, u.HasResetToken())
			},
		},
		{
			name: "not found",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FROM users WHERE email = \$1`).
					WithArgs("megid@web-arena.io").
					WillReturnRows(mock.NewRows(publicCols))
			},
			wantErr: model.ErrNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo, mock := newMockRepo(t)
			tt.setup(mock)

			u, err := repo.FindByEmail(context.Background(), "  MEGID@web-arena.io ", tt.withSecrets)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				tt.check(t, u)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_FindByID(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery(`FROM users WHERE id = \$1 AND active`).
		WithArgs(id).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.FindByID(context.Background(), id, false)
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrNotFound)
	assert.Contains(t, err.Error(), "failed to get user by id")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByResetToken(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()

		repo, mock := newMockRepo(t)
		id := uuid.New()
		now := time.Now().UTC()
		exp := now.Add(5 * time.Minute)
		digest := "abc123"

		mock.ExpectQuery(`WHERE password_reset_token = \$1 AND password_reset_expires >= \$2 AND active`).
			WithArgs(digest, now).
			WillReturnRows(mock.NewRows(secretCols).
				AddRow(id, "megid", "megid@web-arena.io", "", "player", true, nil, now, now, "hash", &digest, &exp))

		u, err := repo.FindByResetToken(context.Background(), digest, now)
		require.NoError(t, err)
		assert.Equal(t, digest, u.PasswordResetToken)
		assert.True(t, u.HasResetToken())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty digest never queries", func(t *testing.T) {
		t.Parallel()

		repo, mock := newMockRepo(t)
		_, err := repo.FindByResetToken(context.Background(), "", time.Now())
		assert.ErrorIs(t, err, model.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_Create(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()

	tests := []struct {
		name    string
		user    model.User
		setup   func(mock pgxmock.PgxPoolIface, u model.User)
		wantErr error
	}{
		{
			name: "success",
			user: model.NewUser("megid", "Megid@Web-Arena.io", model.RolePlayer, "$2a$12$hash", now),
			setup: func(mock pgxmock.PgxPoolIface, u model.User) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs(u.ID, "megid", "megid@web-arena.io", "", "player", true, "$2a$12$hash",
						pgxmock.AnyArg(), "", pgxmock.AnyArg(), now, now).
					WillReturnRows(mock.NewRows(secretCols).
						AddRow(u.ID, "megid", "megid@web-arena.io", "", "player", true, nil, now, now, "$2a$12$hash", nil, nil))
			},
		},
		{
			name: "duplicate email",
			user: model.NewUser("megid", "megid@web-arena.io", model.RolePlayer, "$2a$12$hash", now),
			setup: func(mock pgxmock.PgxPoolIface, u model.User) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs(anyArgs(12)...).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
			},
			wantErr: model.ErrDuplicate,
		},
		{
			name:    "missing hash",
			user:    model.NewUser("megid", "megid@web-arena.io", model.RolePlayer, "", now),
			setup:   func(pgxmock.PgxPoolIface, model.User) {},
			wantErr: model.ErrValidation,
		},
		{
			name:    "invalid email",
			user:    model.NewUser("megid", "nope", model.RolePlayer, "hash", now),
			setup:   func(pgxmock.PgxPoolIface, model.User) {},
			wantErr: model.ErrValidation,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo, mock := newMockRepo(t)
			tt.setup(mock, tt.user)

			saved, err := repo.Create(context.Background(), tt.user)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.user.ID, saved.ID)
				assert.Equal(t, "megid@web-arena.io", saved.Email)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_Save(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	exp := now.Add(10 * time.Minute)

	t.Run("skip validation persists reset fields", func(t *testing.T) {
		t.Parallel()

		repo, mock := newMockRepo(t)
		u := model.NewUser("megid", "megid@web-arena.io", model.RolePlayer, "", now)
		u.Handle = ""
		model.SetResetToken(&u, "digest", exp)

		mock.ExpectQuery(`UPDATE users SET`).
			WithArgs(u.ID, "", "megid@web-arena.io", "", "player", true, "",
				pgxmock.AnyArg(), "digest", pgxmock.AnyArg(), pgxmock.AnyArg(), false).
			WillReturnRows(mock.NewRows(secretCols).
				AddRow(u.ID, "", "megid@web-arena.io", "", "player", true, nil, now, now, "stored-hash", &u.PasswordResetToken, &exp))

		saved, err := repo.Save(context.Background(), u, model.SaveOptions{SkipValidation: true})
		require.NoError(t, err)
		assert.Equal(t, "stored-hash", saved.PasswordHash, "empty hash keeps the stored one")
		assert.True(t, saved.HasResetToken())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty reset fields keep the stored ones", func(t *testing.T) {
		t.Parallel()

		repo, mock := newMockRepo(t)
		u := model.NewUser("megid", "megid@web-arena.io", model.RolePlayer, "", now)
		u.Photo = "users/x/new.png"
		pending := "pending-digest"

		mock.ExpectQuery(`password_reset_token = CASE WHEN \$12 THEN NULL\s+ELSE COALESCE\(NULLIF\(\$9, ''\), password_reset_token\) END,\s+`+
			`password_reset_expires = CASE WHEN \$12 THEN NULL\s+ELSE COALESCE\(\$10, password_reset_expires\) END`).
			WithArgs(u.ID, "megid", "megid@web-arena.io", "users/x/new.png", "player", true, "",
				pgxmock.AnyArg(), "", pgxmock.AnyArg(), pgxmock.AnyArg(), false).
			WillReturnRows(mock.NewRows(secretCols).
				AddRow(u.ID, "megid", "megid@web-arena.io", "users/x/new.png", "player", true, nil, now, now, "stored-hash", &pending, &exp))

		saved, err := repo.Save(context.Background(), u, model.SaveOptions{})
		require.NoError(t, err)
		assert.Equal(t, "pending-digest", saved.PasswordResetToken)
		assert.True(t, saved.HasResetToken())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("clear flag drops reset fields", func(t *testing.T) {
		t.Parallel()

		repo, mock := newMockRepo(t)
		u := model.NewUser("megid", "megid@web-arena.io", model.RolePlayer, "new-hash", now)

		mock.ExpectQuery(`UPDATE users SET`).
			WithArgs(u.ID, "megid", "megid@web-arena.io", "", "player", true, "new-hash",
				pgxmock.AnyArg(), "", pgxmock.AnyArg(), pgxmock.AnyArg(), true).
			WillReturnRows(mock.NewRows(secretCols).
				AddRow(u.ID, "megid", "megid@web-arena.io", "", "player", true, nil, now, now, "new-hash", nil, nil))

		saved, err := repo.Save(context.Background(), u, model.SaveOptions{ClearResetToken: true})
		require.NoError(t, err)
		assert.False(t, saved.HasResetToken())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("validation failure", func(t *testing.T) {
		t.Parallel()

		repo, mock := newMockRepo(t)
		u := model.NewUser("", "megid@web-arena.io", model.RolePlayer, "hash", now)

		_, err := repo.Save(context.Background(), u, model.SaveOptions{})
		assert.ErrorIs(t, err, model.ErrValidation)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		t.Parallel()

		repo, mock := newMockRepo(t)
		u := model.NewUser("megid", "megid@web-arena.io", model.RolePlayer, "hash", now)

		mock.ExpectQuery(`UPDATE users SET`).
			WithArgs(anyArgs(12)...).
			WillReturnRows(mock.NewRows(secretCols))

		_, err := repo.Save(context.Background(), u, model.SaveOptions{})
		assert.ErrorIs(t, err, model.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_Ping(t *testing.T) {
	t.Parallel()

	repo, mock := newMockRepo(t)
	mock.ExpectPing()

	assert.NoError(t, repo.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
