package main

import (
	"bytes"
	"context"
	"testing"

	"go-storefront/internal/config"
	"go-storefront/internal/dbtest"
	"go-storefront/internal/repository"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testCmd() (*cobra.Command, *bytes.Buffer) {
	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	return cmd, out
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"migrate", "seed", "create-admin", "reset-password"}, names)
}

func TestRunSeed(t *testing.T) {
	db := dbtest.NewDB(t)
	cmd, out := testCmd()
	cfg := config.Config{
		SeedAdminEmail: "admin@example.com", SeedAdminPassword: "admin123",
		SeedGuestEmail: "guest@example.com", SeedGuestPassword: "guest123",
	}

	require.NoError(t, runSeed(context.Background(), cmd, db, cfg, zap.NewNop(), true))
	assert.Contains(t, out.String(), "seeded 2 products")

	users, err := repository.NewUserRepo(db).FindAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestCreateAdminAndResetPassword(t *testing.T) {
	ctx := context.Background()
	users := repository.NewUserRepo(dbtest.NewDB(t))
	cmd, out := testCmd()

	require.NoError(t, createAdmin(ctx, cmd, users, "ops@example.com", "secret1", "Ops"))
	assert.Contains(t, out.String(), "created=true")
	assert.Error(t, createAdmin(ctx, cmd, users, "x@example.com", "123", "X"))

	require.NoError(t, resetPassword(ctx, cmd, users, "ops@example.com", "newpass1"))
	u, err := users.FindByEmail(ctx, "ops@example.com")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)
	assert.True(t, u.CheckPassword("newpass1"))

	assert.ErrorContains(t, resetPassword(ctx, cmd, users, "nobody@example.com", "newpass1"), "not found")
}

func TestCreateAdmin_PromotesExisting(t *testing.T) {
	ctx := context.Background()
	db := dbtest.NewDB(t)
	users := repository.NewUserRepo(db)
	cmd, _ := testCmd()

	require.NoError(t, runSeed(ctx, cmd, db, config.Config{SeedGuestEmail: "guest@example.com", SeedGuestPassword: "guest123"}, zap.NewNop(), false))
	require.NoError(t, createAdmin(ctx, cmd, users, "guest@example.com", "whatever", "Guest"))

	u, err := users.FindByEmail(ctx, "guest@example.com")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)
}
