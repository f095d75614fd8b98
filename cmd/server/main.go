package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/taskhub/backend/api/handler"
	"github.com/taskhub/backend/internal/config"
	"github.com/taskhub/backend/internal/infrastructure/files"
	"github.com/taskhub/backend/internal/infrastructure/monitor"
	"github.com/taskhub/backend/internal/infrastructure/outbox"
	pgInfra "github.com/taskhub/backend/internal/infrastructure/postgres"
	redisInfra "github.com/taskhub/backend/internal/infrastructure/redis"
	"github.com/taskhub/backend/internal/middleware"
	"github.com/taskhub/backend/internal/router"
	"github.com/taskhub/backend/internal/services"
	"github.com/taskhub/backend/internal/services/lifecycle"
	"github.com/taskhub/backend/pkg/httpcontext"
	"github.com/taskhub/backend/pkg/logger"
	"github.com/taskhub/backend/pkg/mailer"
	"github.com/taskhub/backend/repository/postgres"
	redisRepo "github.com/taskhub/backend/repository/redis"
	authUC "github.com/taskhub/backend/usecase/auth"
	taskUC "github.com/taskhub/backend/usecase/task"
	userUC "github.com/taskhub/backend/usecase/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	outboxStore, err := outbox.Open(cfg.Outbox.Path, "outbox")
	if err != nil {
		zapLogger.Fatal("failed to open outbox store", zap.Error(err))
	}
	manager.Register("outbox", func(ctx context.Context) error {
		return outboxStore.Close()
	})

	fileStore, err := files.NewStore(cfg.Uploads.Dir)
	if err != nil {
		zapLogger.Fatal("failed to prepare upload directory", zap.Error(err))
	}

	mon := monitor.New(pool, redisClient, outboxStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	userRepo := postgres.NewUserRepository(pool)
	taskRepo := postgres.NewTaskRepository(pool)
	sessionRepo := redisRepo.NewSessionRepository(redisClient, cfg.Session.TTL)

	notifier := services.NewEmailNotifier(outboxStore, zapLogger)

	smtpSender := mailer.New(mailer.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	dispatcher := services.NewDispatcher(outboxStore, smtpSender, zapLogger, services.DispatcherConfig{
		Interval:    cfg.Outbox.SyncInterval,
		BatchSize:   cfg.Outbox.BatchSize,
		MaxAttempts: cfg.Outbox.MaxAttempts,
		Retention:   time.Duration(cfg.Outbox.RetentionHours) * time.Hour,
	})
	dispatcher.Start()
	manager.Register("dispatcher", func(ctx context.Context) error {
		dispatcher.Stop(ctx)
		return nil
	})

	reminder := services.NewReminder(taskRepo, userRepo, notifier, zapLogger, services.ReminderConfig{})
	reminder.Start()
	manager.Register("reminder", func(ctx context.Context) error {
		reminder.Stop(ctx)
		return nil
	})

	authUseCase := authUC.New(userRepo, sessionRepo, authUC.Config{
		Secret:     cfg.JWT.Secret,
		TokenTTL:   cfg.JWT.TokenTTL,
		SessionTTL: cfg.Session.TTL,
	}, zapLogger)
	taskUseCase := taskUC.New(taskRepo, userRepo, notifier, fileStore, zapLogger)
	userUseCase := userUC.New(userRepo, taskRepo, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		User:   apiHandler.NewUserHandler(authUseCase, userUseCase, ctxAdapter, zapLogger),
		Task:   apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	identity := middleware.NewIdentityResolver(authUseCase, ctxAdapter, zapLogger)
	r := router.New(handlers, identity.Require)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
