package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/mendo-app/backend/internal/config"
	"github.com/mendo-app/backend/internal/database"
	"github.com/mendo-app/backend/internal/handler"
	"github.com/mendo-app/backend/internal/mailer"
	"github.com/mendo-app/backend/internal/notify"
	"github.com/mendo-app/backend/internal/queue"
	"github.com/mendo-app/backend/internal/repository"
	"github.com/mendo-app/backend/internal/router"
	"github.com/mendo-app/backend/internal/service"
	"github.com/mendo-app/backend/internal/session"
	"github.com/mendo-app/backend/pkg/logger"
)

func main() {
	// A local .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	db, err := database.Open(cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}
	defer db.Close()

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Warn().Msg("redis unreachable, sessions fall back to in-memory and rate limiting is off")
	}
	sessions := session.New(rdb, cfg.SessionTTL)

	users := repository.NewUserRepo(db)
	requests := repository.NewRequestRepo(db)
	quotes := repository.NewQuoteRepo(db)
	images := repository.NewImageRepo(db)

	sender := mailer.New(cfg.SMTP)
	publisher := queue.NewPublisher(cfg.AMQP.URL)
	notifier := notify.New(publisher, sender, cfg.SMTP.AdminEmail, log)
	go queue.StartNotificationConsumer(cfg.AMQP.URL, sender, log)

	authSvc := service.NewAuthService(users, sessions, notifier, cfg.TokenSecret, cfg.PublicBaseURL, cfg.BcryptCost, log)
	repairSvc := service.NewRepairService(users, requests, quotes, images, notifier, log)
	adminSvc := service.NewAdminService(users, requests, quotes, log)

	if err := authSvc.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("bootstrap admin")
	}

	secureCookie := cfg.Env != "development"
	e := router.New(router.Deps{
		Cfg:      cfg,
		Log:      log,
		Sessions: sessions,
		Redis:    rdb,
		Auth:     handler.NewAuthHandler(authSvc, cfg.SessionTTL, secureCookie),
		Repairs:  handler.NewRepairHandler(repairSvc, cfg.UploadDir, cfg.MaxUploadBytes),
		Quotes:   handler.NewQuoteHandler(repairSvc),
		Admin:    handler.NewAdminHandler(adminSvc, cfg.MaintenanceToken),
	})

	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("listening")
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
