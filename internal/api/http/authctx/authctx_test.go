package authctx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/st-angelo/webarena-auth/internal/model"
)

func TestUser(t *testing.T) {
	t.Parallel()

	_, ok := User(context.Background())
	assert.False(t, ok)

	u := model.NewUser("megid", "megid@web-arena.io", model.RoleAdmin, "", time.Now())
	ctx := WithUser(context.Background(), u)

	got, ok := User(ctx)
	require.True(t, ok)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, model.RoleAdmin, got.Role)
}
