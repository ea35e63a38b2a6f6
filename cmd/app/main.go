package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "parkreserve/docs"
	"parkreserve/internal/booking"
	"parkreserve/internal/config"
	"parkreserve/internal/db"
	"parkreserve/internal/email"
	"parkreserve/internal/logger"
	"parkreserve/internal/server"
)

// @title ParkReserve API
// @version 1.0
// @description Parking spot reservation service.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()

	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config.toml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logger.InitWithLevel(cfg.LogLevel)
	logger.Info("Starting ParkReserve application")

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := db.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Fatal("Failed to connect to redis", "error", err)
	}
	defer rdb.Close()

	emailService := email.New(rdb, email.NewSender(email.Config{
		From:           cfg.EmailFrom,
		FromName:       cfg.EmailFromName,
		SendGridAPIKey: cfg.SendGridAPIKey,
		SMTPHost:       cfg.SMTPHost,
		SMTPPort:       cfg.SMTPPort,
		SMTPUser:       cfg.SMTPUser,
		SMTPPass:       cfg.SMTPPass,
	}))
	go emailService.Start(ctx)
	go reportQueueLength(ctx, emailService)

	sweeper, err := booking.NewSweeper(booking.NewRepository(database), cfg.SweepSchedule)
	if err != nil {
		logger.Fatalf("Failed to schedule booking sweeper: %v", err)
	}
	sweeper.Start()

	srv := server.New(server.Deps{
		DB:     database,
		Redis:  rdb,
		Config: cfg,
		Email:  emailService,
	})

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}
	sweeper.Stop(shutdownCtx)
	cancel()

	logger.Info("Server stopped")
}

func reportQueueLength(ctx context.Context, svc *email.Service) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = svc.QueueLength(ctx)
		}
	}
}
