// Package seed creates the default accounts and the sample catalog.
package seed

import (
	"context"
	"errors"
	"fmt"

	"go-storefront/internal/config"
	"go-storefront/internal/model"
	"go-storefront/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Account struct {
	Email    string
	Password string
	Name     string
	IsAdmin  bool
}

// DefaultAccounts is the admin and guest pair from cfg. In production an
// account whose password is still the built-in default is left out; create
// it with storectl create-admin instead.
func DefaultAccounts(cfg config.Config) []Account {
	var out []Account
	if !cfg.IsProduction() || !cfg.DefaultAdminPassword() {
		out = append(out, Account{Email: cfg.SeedAdminEmail, Password: cfg.SeedAdminPassword, Name: "Admin User", IsAdmin: true})
	}
	if !cfg.IsProduction() || !cfg.DefaultGuestPassword() {
		out = append(out, Account{Email: cfg.SeedGuestEmail, Password: cfg.SeedGuestPassword, Name: "Guest User"})
	}
	return out
}

// EnsureAccount creates the account unless the email is taken. Existing
// accounts are left as they are.
func EnsureAccount(ctx context.Context, users repository.UserRepository, acc Account) (*model.User, bool, error) {
	existing, err := users.FindByEmail(ctx, acc.Email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	user := &model.User{Email: acc.Email, Name: acc.Name, IsAdmin: acc.IsAdmin}
	if err := user.SetPassword(acc.Password); err != nil {
		return nil, false, fmt.Errorf("hash password for %s: %w", acc.Email, err)
	}
	user.CreatedBy = "system"
	user.UpdatedBy = "system"

	if err := users.Create(ctx, user); err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// Accounts seeds every account and logs the ones it created.
func Accounts(ctx context.Context, users repository.UserRepository, log *zap.Logger, accounts ...Account) error {
	for _, acc := range accounts {
		if acc.Email == "" {
			continue
		}
		_, created, err := EnsureAccount(ctx, users, acc)
		if err != nil {
			return fmt.Errorf("seed account %s: %w", acc.Email, err)
		}
		if created {
			log.Info("seeded account", zap.String("email", acc.Email), zap.Bool("admin", acc.IsAdmin))
		}
	}
	return nil
}

// SampleProducts is the starter catalog.
func SampleProducts() []model.Product {
	return []model.Product{
		{
			Name:        "Marlboro Red",
			Brand:       "Marlboro",
			Description: "Classic full-flavored cigarettes with a rich taste.",
			Price:       decimal.NewFromInt(55),
			ImageURL:    "/images/cigarettes/marlborored.jpg",
			Quantity:    100,
		},
		{
			Name:        "Double Happiness",
			Brand:       "Double Happiness",
			Description: "Traditional Chinese cigarettes with a distinctive red package and double happiness symbol.",
			Price:       decimal.NewFromInt(55),
			ImageURL:    "/images/cigarettes/doublehappiness.jpg",
			Quantity:    55,
		},
	}
}

// Products inserts the sample products that are not in the catalog yet,
// matched by name. It returns how many were created.
func Products(ctx context.Context, products repository.ProductRepository) (int, error) {
	created := 0
	for _, p := range SampleProducts() {
		_, err := products.FindByName(ctx, p.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, err
		}

		p := p
		p.CreatedBy = "system"
		p.UpdatedBy = "system"
		if err := products.Create(ctx, &p); err != nil {
			return created, fmt.Errorf("seed product %s: %w", p.Name, err)
		}
		created++
	}
	return created, nil
}
