package main

import (
	"context"
	"errors"
	"fmt"

	"go-storefront/internal/config"
	"go-storefront/internal/repository"
	"go-storefront/internal/seed"
	"go-storefront/pkg/database"
	"go-storefront/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type env struct {
	cfg config.Config
	db  *gorm.DB
	log *zap.Logger
}

// open loads config and connects. Commands call it lazily so --help works
// without a database.
func open() (*env, error) {
	cfg, _ := config.Load()
	zl, err := logger.New(cfg.AppEnv)
	if err != nil {
		return nil, err
	}
	cfg.DB.Writer = logger.StdLog(zl)
	db, err := database.Connect(cfg.DB)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, db: db, log: zl}, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "storectl",
		Short:        "Storefront maintenance commands",
		SilenceUsage: true,
	}
	root.AddCommand(
		newMigrateCmd(),
		newSeedCmd(),
		newCreateAdminCmd(),
		newResetPasswordCmd(),
	)
	return root
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := open()
			if err != nil {
				return err
			}
			if err := repository.Migrate(e.db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	var withProducts bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the default admin and guest accounts and sample products",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := open()
			if err != nil {
				return err
			}
			return runSeed(cmd.Context(), cmd, e.db, e.cfg, e.log, withProducts)
		},
	}
	cmd.Flags().BoolVar(&withProducts, "products", true, "also insert the sample catalog")
	return cmd
}

func runSeed(ctx context.Context, cmd *cobra.Command, db *gorm.DB, cfg config.Config, log *zap.Logger, withProducts bool) error {
	if err := repository.Migrate(db); err != nil {
		return err
	}
	err := seed.Accounts(ctx, repository.NewUserRepo(db), log, seed.DefaultAccounts(cfg)...)
	if err != nil {
		return err
	}
	if !withProducts {
		return nil
	}
	n, err := seed.Products(ctx, repository.NewProductRepo(db))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d products\n", n)
	return nil
}

func newCreateAdminCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "create-admin <email> <password>",
		Short: "Create an admin account, or promote an existing one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open()
			if err != nil {
				return err
			}
			return createAdmin(cmd.Context(), cmd, repository.NewUserRepo(e.db), args[0], args[1], name)
		},
	}
	cmd.Flags().StringVar(&name, "name", "Admin User", "display name")
	return cmd
}

func createAdmin(ctx context.Context, cmd *cobra.Command, users repository.UserRepository, email, password, name string) error {
	if len(password) < 6 {
		return errors.New("password must be at least 6 characters")
	}
	user, created, err := seed.EnsureAccount(ctx, users, seed.Account{Email: email, Password: password, Name: name, IsAdmin: true})
	if err != nil {
		return err
	}
	if !created && !user.IsAdmin {
		if err := users.SetAdmin(ctx, user.ID, true, "storectl"); err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "admin ready: %s (created=%t)\n", email, created)
	return nil
}

func newResetPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password <email> <new-password>",
		Short: "Set a new password for an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open()
			if err != nil {
				return err
			}
			return resetPassword(cmd.Context(), cmd, repository.NewUserRepo(e.db), args[0], args[1])
		},
	}
}

func resetPassword(ctx context.Context, cmd *cobra.Command, users repository.UserRepository, email, password string) error {
	if len(password) < 6 {
		return errors.New("password must be at least 6 characters")
	}
	user, err := users.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("user %s not found", email)
	}
	if err != nil {
		return err
	}
	if err := user.SetPassword(password); err != nil {
		return err
	}
	if err := users.UpdatePassword(ctx, user.ID, user.Password); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "password reset for %s\n", email)
	return nil
}
