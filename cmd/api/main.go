package main

import (
	"fmt"
	"os"
	"time"

	"smsledger/internal/config"
	"smsledger/internal/database"
	"smsledger/internal/logger"
	"smsledger/internal/server"
	"smsledger/internal/services"
	"smsledger/internal/smsparser"
	"smsledger/internal/store"
	"smsledger/internal/validator"

	"gorm.io/gorm"
)

// @title           SMS Ledger API
// @version         1.0
// @description     Turns bank notification SMS into categorized per-device transactions.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the device token.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// 100 requests per 15 minutes per client IP.
const (
	rateLimitWindow = 15 * time.Minute
	rateLimitMax    = 100
)

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	validator.Register()

	st, db, closeStore, err := openStore(appConfig)
	if err != nil {
		return err
	}
	defer closeStore()

	parser := smsparser.New(smsparser.WithLocation(appConfig.ParserLocation))
	router := server.NewRouter(server.Options{
		CORSOrigin:   appConfig.CORSOrigin,
		JWTSecret:    []byte(appConfig.JWTSecret),
		TokenTTL:     appConfig.JWTExpirationDur,
		IngestAPIKey: appConfig.IngestAPIKey,
		StoreBackend: appConfig.StoreBackend,
		RateLimit:    rateLimitMax,
		RateWindow:   rateLimitWindow,
	}, server.Services{
		SMS:          services.NewSMSService(parser, st),
		Transactions: services.NewTransactionService(st, appConfig.ParserLocation),
		Audit:        services.NewAuditService(db),
	})

	log.Infof("Starting SMS ledger server on port %s (store: %s)", appConfig.Port, appConfig.StoreBackend)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}

// openStore builds the configured transaction store. The returned *gorm.DB is
// nil for the in-memory backend.
func openStore(cfg *config.Config) (store.Store, *gorm.DB, func(), error) {
	if cfg.StoreBackend != config.StoreDatabase {
		return store.NewMemoryStore(), nil, func() {}, nil
	}

	dbManager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create database manager: %w", err)
	}
	if err := dbManager.RunMigrations(); err != nil {
		_ = dbManager.Close()
		return nil, nil, nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	closeFn := func() {
		if err := dbManager.Close(); err != nil {
			logger.Get().Warnf("database close error: %v", err)
		}
	}
	return store.NewGormStore(dbManager.DB()), dbManager.DB(), closeFn, nil
}
