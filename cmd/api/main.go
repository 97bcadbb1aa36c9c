package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-storefront/internal/config"
	"go-storefront/internal/repository"
	"go-storefront/internal/seed"
	"go-storefront/internal/server"
	"go-storefront/internal/service"
	"go-storefront/internal/ws"
	"go-storefront/pkg/cache"
	"go-storefront/pkg/database"
	"go-storefront/pkg/jwt"
	"go-storefront/pkg/logger"
	"go-storefront/pkg/mail"
	"go-storefront/pkg/storage"

	"go.uber.org/zap"
)

func main() {
	// 1. Load Env
	cfg, found := config.Load()

	zl, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	zap.ReplaceGlobals(zl)

	if !found {
		zl.Warn(".env file not found, using process environment")
	}
	if cfg.InsecureSecret() {
		if cfg.IsProduction() {
			zl.Fatal("JWT_SECRET must be set in production")
		}
		zl.Warn("JWT_SECRET not set, using the development default")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Setup Database
	cfg.DB.Writer = logger.StdLog(zl)
	db, err := database.Connect(cfg.DB)
	if err != nil {
		zl.Fatal("connect database", zap.Error(err))
	}
	if err := repository.Migrate(db); err != nil {
		zl.Fatal("migrate database", zap.Error(err))
	}

	// 3. Seed default accounts
	productRepo := repository.NewProductRepo(db)
	orderRepo := repository.NewOrderRepo(db)
	analyticsRepo := repository.NewAnalyticsRepo(db)
	userRepo := repository.NewUserRepo(db)

	accounts := seed.DefaultAccounts(cfg)
	if len(accounts) < 2 {
		zl.Warn("skipping seed accounts with default passwords in production")
	}
	err = seed.Accounts(ctx, userRepo, zl, accounts...)
	if err != nil {
		zl.Warn("seed accounts", zap.Error(err))
	}

	// 4. Optional infrastructure
	var catalog cache.Cache = cache.Noop{}
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			zl.Warn("redis unavailable, catalog cache disabled", zap.Error(err))
		} else {
			defer rc.Close()
			catalog = rc
		}
	}

	var images storage.ObjectStore
	if cfg.S3.Enabled() {
		s3, err := storage.NewS3(ctx, cfg.S3)
		if err != nil {
			zl.Warn("object storage unavailable, image upload disabled", zap.Error(err))
		} else {
			images = s3
		}
	}

	var mailer mail.Sender
	if cfg.Mail.Configured() {
		mailer = mail.NewSMTPSender(cfg.Mail)
	} else {
		zl.Warn("email not configured, order notifications will be skipped")
	}

	// 5. Setup WebSocket Hub
	hubCtx, stopHub := context.WithCancel(context.Background())
	wsHub := ws.NewHub(zl)
	go wsHub.Run(hubCtx)

	// 6. Dependency Injection (Wiring Layers)
	tokens := jwt.NewManager(cfg.JWTSecret, cfg.SessionTTL)
	notifier := service.NewNotifier(mailer, cfg.NotifyEmail, wsHub, zl)

	app := server.New(server.Deps{
		DB:     db,
		Tokens: tokens,
		Hub:    wsHub,
		Orders: service.NewOrderService(db, orderRepo, productRepo, analyticsRepo, catalog, notifier, service.OrderOptions{
			StrictTransitions: cfg.StrictOrderTransitions,
			RestockOnCancel:   cfg.RestockOnCancel,
		}, zl),
		Products:      service.NewProductService(db, productRepo, catalog, cfg.CatalogCacheTTL, images, notifier, zl),
		Auth:          service.NewAuthService(userRepo, tokens, zl),
		Users:         service.NewUserService(userRepo),
		Dashboard:     service.NewDashboardService(analyticsRepo),
		AdminUIDir:    cfg.AdminUIDir,
		SecureCookies: cfg.IsProduction(),
		AccessLog:     os.Stdout,
		Log:           zl,
	})

	// 7. Graceful Shutdown
	go func() {
		zl.Info("listening", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
		if err := app.Listen(":" + cfg.Port); err != nil {
			zl.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down server")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
	}
	stopHub()
	<-wsHub.Done()
	notifier.Wait()

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	zl.Info("server exited")
}
