package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fitnesshub/program-tracker/internal/auth"
	"github.com/fitnesshub/program-tracker/internal/config"
	"github.com/fitnesshub/program-tracker/internal/database"
	"github.com/fitnesshub/program-tracker/internal/logger"
	"github.com/fitnesshub/program-tracker/internal/mail"
	"github.com/fitnesshub/program-tracker/internal/metrics"
	"github.com/fitnesshub/program-tracker/internal/queue"
	"github.com/fitnesshub/program-tracker/internal/repository"
	"github.com/fitnesshub/program-tracker/internal/repository/memstore"
	"github.com/fitnesshub/program-tracker/internal/router"
	"github.com/fitnesshub/program-tracker/internal/service"
	"github.com/fitnesshub/program-tracker/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer logger.Sync(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	store, ping, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Warn("redis unavailable, rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}

	var mailer service.Mailer = mail.NewLogMailer(log)
	if cfg.SMTP.Host != "" {
		mailer = mail.NewSMTPMailer(cfg.SMTP)
	}

	var events queue.Publisher = queue.NopPublisher{}
	if cfg.EventsEnabled {
		events = queue.NewBestEffort(queue.NewAMQPPublisher(cfg.RabbitMQURL, log), log)
	}

	m := metrics.New()
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return err
	}
	hasher := utils.NewPasswordHasher(cfg.BcryptCost)
	opts := []service.Option{service.WithLogger(log), service.WithEvents(events), service.WithMetrics(m)}

	verify := service.NewVerificationService(store, mailer, service.VerificationConfig{
		TTL:          cfg.VerificationTTL,
		Window:       cfg.VerificationWindow,
		MaxPerWindow: cfg.VerificationMaxWindow,
		FrontendURL:  cfg.FrontendURL,
		AppName:      cfg.AppName,
	}, opts...)

	e := router.New(router.Deps{
		Config:        cfg,
		RateLimit:     config.LoadRateLimitConfig(),
		Cache:         config.LoadCacheConfig(),
		Log:           log,
		Metrics:       m,
		Redis:         rdb,
		Tokens:        tokens,
		Users:         store.Users(),
		Auth:          service.NewAuthService(store, hasher, tokens, service.NewPasswordCredentials(store.Users(), hasher), verify, opts...),
		Verifications: verify,
		Programs:      service.NewProgramService(store, opts...),
		Plans:         service.NewWeeklyPlanService(store, opts...),
		Ping:          ping,
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("store", cfg.DBDriver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// openStore returns the configured Store, a health check and a closer.
func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (repository.Store, func(context.Context) error, func(), error) {
	if cfg.DBDriver == "memory" {
		log.Warn("using in-memory store, data is lost on restart")
		return memstore.New(), nil, func() {}, nil
	}

	db, err := database.Open(ctx, database.Options{
		User: cfg.DBUser,
		Pass: cfg.DBPass,
		Host: cfg.DBHost,
		Port: cfg.DBPort,
		Name: cfg.DBName,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, nil, err
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			log.Warn("close database", zap.Error(err))
		}
	}
	return repository.NewSQLStore(db), db.PingContext, closeDB, nil
}

