package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/khalidbou/affiliate_store/internal/auth"
	"github.com/khalidbou/affiliate_store/internal/config"
	"github.com/khalidbou/affiliate_store/internal/handler"
	"github.com/khalidbou/affiliate_store/internal/ledger"
	"github.com/khalidbou/affiliate_store/internal/migration"
	"github.com/khalidbou/affiliate_store/internal/repository"
	"github.com/khalidbou/affiliate_store/internal/service"
)

func main() {
	// Initialize config
	systemConfig, err := config.NewSystemConfig()
	if err != nil {
		log.Fatal("Failed to parse configuration: ", err)
	}

	// Initialize logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal("Failed to initialize zap logger: ", err)
	}
	defer logger.Sync()
	logSugar := logger.Sugar()

	// Check migrations
	migCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = migration.RunMigrations(migCtx, systemConfig.DatabaseURI, logSugar)
	if err != nil {
		logSugar.Errorf("%v", err)
	}

	limits := ledger.Limits{
		WithdrawMin:     systemConfig.WithdrawMin,
		WeeklyBonusUnit: systemConfig.WeeklyBonusUnit,
	}

	// Initialize database storage
	dbStorage, err := repository.NewDBStorage(systemConfig.DatabaseURI, limits)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	defer dbStorage.Close()

	ctx := context.Background()
	if err := dbStorage.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database: ", err)
	}

	// Seed the bootstrap admin account
	adminHash, err := auth.HashPassword(systemConfig.AdminPassword)
	if err != nil {
		log.Fatal("Failed to hash admin password: ", err)
	}
	if err := dbStorage.EnsureAdmin(ctx, adminHash); err != nil {
		log.Fatal("Failed to seed admin account: ", err)
	}

	// Initialize service
	storefront := service.NewStorefrontService(dbStorage, logSugar, limits)

	logSugar.Infow(
		"Starting server",
		"run address", systemConfig.RunAddress,
		"withdraw min", systemConfig.WithdrawMin.String(),
		"weekly bonus unit", systemConfig.WeeklyBonusUnit.String(),
	)

	// Start server
	logSugar.Fatal(
		http.ListenAndServe(
			systemConfig.RunAddress,
			handler.Router(logSugar, systemConfig, storefront),
		),
	)
}
