package seed

import (
	"context"
	"testing"

	"go-storefront/internal/config"
	"go-storefront/internal/dbtest"
	"go-storefront/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAccounts_Idempotent(t *testing.T) {
	ctx := context.Background()
	users := repository.NewUserRepo(dbtest.NewDB(t))

	admin := Account{Email: "admin@example.com", Password: "admin123", Name: "Admin User", IsAdmin: true}
	guest := Account{Email: "guest@example.com", Password: "guest123", Name: "Guest User"}

	require.NoError(t, Accounts(ctx, users, zap.NewNop(), admin, guest))
	require.NoError(t, Accounts(ctx, users, zap.NewNop(), admin, guest))

	all, err := users.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	u, err := users.FindByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)
	assert.True(t, u.CheckPassword("admin123"))
}

func TestEnsureAccount_KeepsExisting(t *testing.T) {
	ctx := context.Background()
	users := repository.NewUserRepo(dbtest.NewDB(t))

	first, created, err := EnsureAccount(ctx, users, Account{Email: "a@b.c", Password: "secret1"})
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := EnsureAccount(ctx, users, Account{Email: "a@b.c", Password: "other12", IsAdmin: true})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
	assert.False(t, again.IsAdmin)
}

func TestProducts(t *testing.T) {
	ctx := context.Background()
	products := repository.NewProductRepo(dbtest.NewDB(t))

	n, err := Products(ctx, products)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = Products(ctx, products)
	require.NoError(t, err)
	assert.Zero(t, n)

	p, err := products.FindByName(ctx, "Double Happiness")
	require.NoError(t, err)
	assert.Equal(t, 55, p.Quantity)
	assert.Equal(t, "55", p.Price.String())
}

func TestDefaultAccounts(t *testing.T) {
	base := config.Config{
		SeedAdminEmail: "admin@example.com", SeedAdminPassword: "admin123",
		SeedGuestEmail: "guest@example.com", SeedGuestPassword: "guest123",
	}
	emails := func(accs []Account) []string {
		var out []string
		for _, a := range accs {
			out = append(out, a.Email)
		}
		return out
	}

	local := base
	local.AppEnv = "local"
	assert.Equal(t, []string{"admin@example.com", "guest@example.com"}, emails(DefaultAccounts(local)))

	prod := base
	prod.AppEnv = "production"
	assert.Empty(t, DefaultAccounts(prod))

	prod.SeedAdminPassword = "long-random-value"
	accs := DefaultAccounts(prod)
	require.Len(t, accs, 1)
	assert.Equal(t, "admin@example.com", accs[0].Email)
	assert.True(t, accs[0].IsAdmin)
}
