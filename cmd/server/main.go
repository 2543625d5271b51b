package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/microtask-escrow/internal/config"
	"github.com/ignatzorin/microtask-escrow/internal/db"
	"github.com/ignatzorin/microtask-escrow/internal/goroutine"
	httpHandlers "github.com/ignatzorin/microtask-escrow/internal/http/handlers"
	httpRouter "github.com/ignatzorin/microtask-escrow/internal/http/router"
	"github.com/ignatzorin/microtask-escrow/internal/logger"
	"github.com/ignatzorin/microtask-escrow/internal/repository"
	"github.com/ignatzorin/microtask-escrow/internal/repository/memory"
	"github.com/ignatzorin/microtask-escrow/internal/service"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logLevel := cfg.LogLevel
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Log.Fatalf("main: ошибка инициализации хранилища: %v", err)
	}
	defer closeStore()

	policy, err := service.NewPolicy(cfg.MinWithdrawalCoins, cfg.CoinsPerCurrencyUnit, cfg.BuyerSignupBonus, cfg.WorkerSignupBonus)
	if err != nil {
		logger.Log.Fatalf("main: некорректная политика площадки: %v", err)
	}

	// Сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret)
	escrowService := service.NewEscrowService(store, policy)
	userService := service.NewUserService(store, policy)
	purchaseService := service.NewPurchaseService(store)
	notificationService := service.NewNotificationService(store)

	auditService := service.NewAuditService(store)
	if err := auditService.Start(cfg.AuditSchedule); err != nil {
		logger.Log.Fatalf("main: ошибка запуска сверки журнала: %v", err)
	}
	defer auditService.Stop()

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, tokenManager,
		httpHandlers.NewHealthHandler(store),
		httpHandlers.NewUserHandler(userService, escrowService),
		httpHandlers.NewTaskHandler(escrowService),
		httpHandlers.NewSubmissionHandler(escrowService),
		httpHandlers.NewWithdrawalHandler(escrowService),
		httpHandlers.NewNotificationHandler(notificationService),
		httpHandlers.NewPurchaseHandler(purchaseService),
		httpHandlers.NewAdminHandler(userService),
	)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	goroutine.SafeGoWithContext(ctx, func(ctx context.Context) {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.WithError(err).Error("main: ошибка остановки http сервера")
		}
	})

	logger.Log.WithFields(map[string]interface{}{
		"port":    cfg.HTTPPort,
		"storage": cfg.StorageDriver,
		"env":     cfg.Env,
	}).Info("main: HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Log.WithError(err).Error("main: сервер завершился с ошибкой")
		closeStore()
		os.Exit(1)
	}
	logger.Log.Info("main: сервер остановлен")
}

// openStore выбирает хранилище по STORAGE_DRIVER. Для Postgres при AUTO_MIGRATE
// сначала накатываются миграции.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, func(), error) {
	if cfg.StorageDriver == config.StorageMemory {
		logger.Log.Warn("main: используется хранилище в памяти, данные не переживут перезапуск")
		return memory.NewStore(), func() {}, nil
	}

	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if cfg.AutoMigrate {
		if err := db.RunMigrations(ctx, dbConn); err != nil {
			safeClose(dbConn)
			return nil, nil, err
		}
	}
	return repository.NewPostgresStore(dbConn), func() { safeClose(dbConn) }, nil
}

// safeClose закрывает соединение с базой.
func safeClose(conn *sqlx.DB) {
	if err := conn.Close(); err != nil {
		logger.Log.WithError(err).Warn("main: ошибка закрытия базы")
	}
}
