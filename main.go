package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"prepdeck/repository"
	"prepdeck/services"
)

func main() {
	// Setup structured logging with JSON format
	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(slogger)

	config := services.LoadConfig()

	server := services.NewServer(config)

	if config.Database.URL != "" {
		gormDB, err := gorm.Open(postgres.Open(config.Database.URL), &gorm.Config{
			Logger: gormLogLevel(config.Database.LogLevel),
		})
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}

		if sqlDB, err := gormDB.DB(); err == nil {
			sqlDB.SetMaxIdleConns(config.Database.MaxIdleConns)
			sqlDB.SetMaxOpenConns(config.Database.MaxOpenConns)
		}

		repo := repository.NewGORMRepository(gormDB)
		if err := repo.AutoMigrate(); err != nil {
			slog.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("Database migrations completed")

		// Raw pool for the analytics queries.
		pool, err := pgxpool.New(context.Background(), config.Database.URL)
		if err != nil {
			slog.Error("Failed to create pgx pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		server.SetDatabase(repo, pool)

		if config.Database.Seed {
			seeder := services.NewDatabaseSeeder(repo)
			if err := seeder.SeedDatabase(); err != nil {
				slog.Error("Failed to seed database", "error", err)
			}
		}
	} else {
		slog.Warn("Database URL not configured, running without database")
	}

	if err := server.InitializeServices(); err != nil {
		slog.Error("Failed to initialize services", "error", err)
		os.Exit(1)
	}

	server.Start()
}

func gormLogLevel(level string) logger.Interface {
	switch level {
	case "info":
		return logger.Default.LogMode(logger.Info)
	case "warn":
		return logger.Default.LogMode(logger.Warn)
	case "error":
		return logger.Default.LogMode(logger.Error)
	default:
		return logger.Default.LogMode(logger.Silent)
	}
}
