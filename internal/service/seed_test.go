package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
	"github.com/aryan0dhankhar/wardenlink/pkg/config"
)

func TestSeeder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seeder := NewSeeder(f.store.Roles(), f.store.Users(), f.hasher, slog.New(slog.NewTextHandler(io.Discard, nil)))

	admin := config.SeedAdmin{FullName: "Root", Email: "Root@Wardens.example", Password: "root-password"}
	require.NoError(t, seeder.Run(ctx, admin))
	require.NoError(t, seeder.Run(ctx, admin), "seeding twice is harmless")

	roles, err := f.store.Roles().List(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, 4)

	u, err := f.store.Users().GetByEmail(ctx, "root@wardens.example")
	require.NoError(t, err)
	assert.True(t, u.IsSuperAdmin)
	assert.Equal(t, domain.UserActive, u.Status)
	assert.Equal(t, domain.RoleSuperAdmin, u.RoleName())

	res, err := f.auth.Login(ctx, LoginInput{Email: "root@wardens.example", Password: "root-password"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, res.User.ID)

	_, created, err := seeder.SeedSuperAdmin(ctx, admin)
	require.NoError(t, err)
	assert.False(t, created)

	_, _, err = seeder.SeedSuperAdmin(ctx, config.SeedAdmin{Email: "x@y.z"})
	assert.Error(t, err)
}
