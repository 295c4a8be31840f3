// File: app/app.go
package app

import (
	"context"
	"database/sql"
	"expense-ledger-api/config"
	"expense-ledger-api/db"
	"expense-ledger-api/handler"
	"expense-ledger-api/logger"
	"expense-ledger-api/notifier"
	"expense-ledger-api/repository"
	"expense-ledger-api/router"
	"expense-ledger-api/service"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
)

// buildRouter wires repositories, services and handlers together. The
// notifier may be nil, in which case ledger operations simply skip
// notification publishing.
func buildRouter(database *sql.DB, redisClient *redis.Client, ledgerNotifier *notifier.Notifier) http.Handler {
	userRepo := repository.NewUserRepository(database)
	tokenRepo := repository.NewTokenRepository(database)
	accountRepo := repository.NewAccountRepository(database)
	expenseRepo := repository.NewExpenseRepository(database)
	transferRepo := repository.NewTransferRepository(database)
	categoryRepo := repository.NewCategoryRepository(database)

	authService := service.NewAuthService(userRepo, tokenRepo)
	accountService := service.NewAccountService(accountRepo)
	userService := service.NewUserService(database, userRepo, accountService, authService)
	balanceService := service.NewBalanceService(accountRepo, expenseRepo, transferRepo)
	categoryService := service.NewCategoryService(categoryRepo, redisClient)
	reportService := service.NewReportService(accountRepo, expenseRepo, transferRepo, redisClient)

	var transferNotifier service.TransferNotifier
	var expenseNotifier service.ExpenseNotifier
	if ledgerNotifier != nil {
		transferNotifier = ledgerNotifier
		expenseNotifier = ledgerNotifier
	}

	transferService := service.NewTransferService(database, accountRepo, transferRepo, transferNotifier)
	expenseService := service.NewExpenseService(database, accountRepo, expenseRepo, categoryRepo, expenseNotifier)

	return router.NewRouter(router.Handlers{
		User:     handler.NewUserHandler(userService, authService),
		Account:  handler.NewAccountHandler(accountService, balanceService),
		Transfer: handler.NewTransferHandler(transferService),
		Expense:  handler.NewExpenseHandler(expenseService),
		Category: handler.NewCategoryHandler(categoryService),
		Report:   handler.NewReportHandler(reportService),
	})
}

func Run() {
	config.LoadConfig(".")
	logger.Init()
	logger.Log.Info("Logger initialized")
	logger.Log.Info("Configuration loaded successfully")

	database, err := db.Connect()
	if err != nil {
		logger.Log.Fatalf("Error connecting to the database: %v", err)
	}
	defer database.Close()

	if err := db.Migrate("db/migrations"); err != nil {
		logger.Log.Fatalf("Error applying database migrations: %v", err)
	}

	redisClient, err := db.ConnectRedis()
	if err != nil {
		logger.Log.Fatalf("Error connecting to redis: %v", err)
	}
	defer redisClient.Close()

	// A broker outage must not keep the ledger down: notifications are
	// best-effort, so the app starts without them.
	var ledgerNotifier *notifier.Notifier
	if cfg := config.AppConfig.AMQP; cfg.URL != "" {
		ledgerNotifier, err = notifier.New(cfg.URL, cfg.Exchange, cfg.Queue)
		if err != nil {
			logger.Log.WithError(err).Warn("Notifier unavailable; continuing without notifications")
		} else {
			defer ledgerNotifier.Close()
		}
	}

	r := buildRouter(database, redisClient, ledgerNotifier)

	// --- Start the Server with Graceful Shutdown ---
	port := config.AppConfig.Server.Port
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}

// TestApp exposes the wired router plus raw connections for integration
// tests.
type TestApp struct {
	DB     *sql.DB
	Router http.Handler
}

// NewTestApp wires the application against test connections, without a
// notifier.
func NewTestApp(database *sql.DB, redisClient *redis.Client) *TestApp {
	return &TestApp{
		DB:     database,
		Router: buildRouter(database, redisClient, nil),
	}
}
