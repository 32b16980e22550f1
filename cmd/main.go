package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fitsync/schedule-service/cmd/api"
	"github.com/fitsync/schedule-service/cmd/models"
	"github.com/fitsync/schedule-service/db"
	"github.com/fitsync/schedule-service/service/identity"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			runMigrations()
			return
		default:
			log.Fatalf("Unknown command: %s", os.Args[1])
		}
	}

	startServer()
}

func runMigrations() {
	DB, err := db.NewPSQLStorage()
	if err != nil {
		log.Fatalf("Database initialization error: %v", err)
	}
	defer func() {
		sqlDB, _ := DB.DB()
		sqlDB.Close()
		log.Println("Database connection closed")
	}()
	log.Println("Connected to the database for migrations")

	if err := performMigrations(DB); err != nil {
		log.Fatalf("Migration error: %v", err)
	}
	log.Println("Migrations completed successfully")
}

func performMigrations(DB *gorm.DB) error {

	migrations := map[interface{}]string{
		&models.AvailabilitySlot{}: "Availability",
		&models.Booking{}:          "Booking",
		&models.GroupSession{}:     "GroupSession",
	}

	log.Println("Starting database migrations...")
	for model, name := range migrations {
		log.Printf("Migrating %s table...", name)
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("error migrating %s table: %w", name, err)
		}
		log.Printf("%s migration successful", name)
	}

	return nil
}

func startServer() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Logger initialization error: %v", err)
	}
	defer logger.Sync()

	DB, err := db.NewPSQLStorage()
	if err != nil {
		logger.Fatal("database initialization error", zap.Error(err))
	}
	defer func() {
		sqlDB, _ := DB.DB()
		sqlDB.Close()
		logger.Info("database connection closed")
	}()
	logger.Info("connected to the database")

	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr(),
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		// Events are best-effort, so a missing redis only degrades them.
		logger.Warn("redis unreachable, events will be dropped", zap.Error(err))
	} else {
		logger.Info("redis connected")
	}
	defer rdb.Close()

	identityClient := identity.NewClient(
		envOrDefault("USER_SERVICE_URL", "http://localhost:3001"),
		envOrDefault("TRAINING_SERVICE_URL", "http://localhost:3002"),
		logger,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	port := envOrDefault("PORT", "8003")
	server := api.NewApiServer(":"+port, DB, rdb, identityClient, logger)

	go func() {
		if err := server.Run(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()
	logger.Info("server started", zap.String("port", port))

	<-quit
	logger.Info("shutting down server")
}

func redisAddr() string {
	host := envOrDefault("REDIS_HOST", "localhost")
	port := envOrDefault("REDIS_PORT", "6379")
	return host + ":" + port
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
