package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arnold/momentum-api/internal/config"
	"github.com/arnold/momentum-api/internal/database"
	"github.com/arnold/momentum-api/internal/handlers"
	"github.com/arnold/momentum-api/internal/logger"
	"github.com/arnold/momentum-api/internal/middleware"
	"github.com/arnold/momentum-api/internal/progress"
	"github.com/arnold/momentum-api/internal/routes"
	"github.com/arnold/momentum-api/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, File: cfg.LogFile})

	if err := database.Connect(cfg); err != nil {
		logger.Logger.Fatal("failed to connect to database", "err", err)
	}
	if err := database.Migrate(); err != nil {
		logger.Logger.Fatal("failed to migrate database", "err", err)
	}

	opts := services.Options{
		Clock:          progress.SystemClock{},
		Location:       cfg.DefaultLocation(),
		StreakScanCap:  cfg.StreakScanCap,
		MaxCatchUpDays: cfg.MaxCatchUpDays,
	}
	hub := handlers.NewHub()
	api := handlers.NewAPI(database.DB, opts, hub, cfg.JWTSecret, cfg.DefaultTimezone)

	scheduler := services.NewVitalityScheduler(database.DB, api.Habits, cfg.SweepInterval, hub.HabitsRefreshed)
	scheduler.Start(context.Background())

	app := fiber.New(fiber.Config{
		AppName:      "momentum-api",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	})
	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(middleware.RequestLogger())
	routes.Setup(app, api)

	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Logger.Fatal("server error", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	scheduler.Stop()
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		logger.Logger.Fatal("shutdown error", "err", err)
	}
}
