package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/impacttracker/impacttracker/internal/audit"
	"github.com/impacttracker/impacttracker/internal/auth"
	"github.com/impacttracker/impacttracker/internal/config"
	"github.com/impacttracker/impacttracker/internal/crypto"
	"github.com/impacttracker/impacttracker/internal/database"
	"github.com/impacttracker/impacttracker/internal/handler"
	"github.com/impacttracker/impacttracker/internal/mail"
	"github.com/impacttracker/impacttracker/internal/middleware"
	"github.com/impacttracker/impacttracker/internal/queue"
	"github.com/impacttracker/impacttracker/internal/repository"
	"github.com/impacttracker/impacttracker/internal/router"
	"github.com/impacttracker/impacttracker/internal/storage"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.Open(database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass,
		Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		logger.Fatal("database connect failed", zap.Error(err))
	}
	defer db.Close()

	cipher, err := crypto.NewFieldCipher(cfg.EncKey)
	if err != nil {
		logger.Fatal("field cipher init failed", zap.Error(err))
	}

	// Redis is optional. Without it the rate limiter passes through and
	// reset tokens live in process memory.
	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn("redis unavailable, rate limiting disabled and reset tokens are process-local")
	}

	users := repository.NewUserRepo(db)
	projects := repository.NewProjectRepo(db)
	indicators := repository.NewIndicatorRepo(db)
	financements := repository.NewFinancementRepo(db)
	documents := repository.NewDocumentRepo(db)
	audits := repository.NewAuditRepo(db)
	stats := repository.NewStatsRepo(db)

	tokens := auth.NewTokenService(cfg.AccessSecret, cfg.RefreshSecret, cfg.AccessTTLMin, cfg.RefreshTTLDays)
	var resets auth.ResetTokenStore = auth.NewMemoryResetStore()
	if rdb != nil {
		resets = auth.NewRedisResetStore(rdb)
	}
	recorder := audit.NewRecorder(audits, logger, cfg.PublishAuditEvents)
	mailer := mail.NewSMTPMailer(mail.SMTPConfig{
		Host: cfg.SMTPHost, Port: cfg.SMTPPort,
		User: cfg.SMTPUser, Password: cfg.SMTPPassword,
		FromEmail: cfg.SMTPFromEmail, FromName: cfg.SMTPFromName,
	}, logger)
	store := storage.NewLocalStore(cfg.StorageDir, cfg.MaxUploadSizeMB)

	if cfg.PublishAuditEvents {
		go func() {
			if err := queue.StartSecurityConsumer(); err != nil {
				logger.Error("security consumer stopped", zap.Error(err))
			}
		}()
	}

	h := router.Handlers{
		Health:       handler.NewHealthHandler(db),
		Auth:         handler.NewAuthHandler(cfg, users, tokens, resets, cipher, recorder, mailer, logger),
		Users:        handler.NewUserHandler(cfg, users, cipher, recorder, mailer, logger),
		Projects:     handler.NewProjectHandler(projects, users, cipher, recorder, logger),
		Indicators:   handler.NewIndicatorHandler(indicators, projects, recorder),
		Financements: handler.NewFinancementHandler(financements, projects, users, recorder),
		Documents:    handler.NewDocumentHandler(cfg, documents, projects, store, recorder, logger),
		Audits:       handler.NewAuditHandler(audits),
		Stats:        handler.NewStatsHandler(stats, projects, cipher, recorder),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	authGuard := middleware.JWTAuth(tokens, users)
	loginLimiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	router.Register(e, h, authGuard, loginLimiter)

	addr := ":" + cfg.Port
	logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

// newLogger picks the zap preset for the environment: structured JSON in
// prod, console encoding everywhere else.
func newLogger(env string) (*zap.Logger, error) {
	if env == "prod" || env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
