package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go-sales-crm/internal/config"
	"go-sales-crm/internal/logging"
	"go-sales-crm/internal/server"
	"go-sales-crm/internal/ws"
	"go-sales-crm/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	// 2. Setup Database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		slog.Error("database connection failed", "err", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "err", err)
		os.Exit(1)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 3. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run(ctx)

	// 4. Dependency Injection (Wiring Layers)
	svc := server.NewServices(cfg, db, wsHub)

	// 5. Seed the administrator account
	if created, err := svc.Users.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
		slog.Warn("failed to seed admin user", "err", err)
	} else if created {
		slog.Info("admin user created", "username", cfg.Auth.AdminUsername)
	}

	app := server.New(cfg, svc, wsHub)

	// 6. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			slog.Error("server stopped", "err", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	stop()
	if err := app.Shutdown(); err != nil {
		slog.Error("server forced to shutdown", "err", err)
		os.Exit(1)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	slog.Info("server exited")
}
