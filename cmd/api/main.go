package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/octobees/desamiantage-leads/internal/app"
	"github.com/octobees/desamiantage-leads/internal/auth"
	"github.com/octobees/desamiantage-leads/internal/config"
	"github.com/octobees/desamiantage-leads/internal/database"
	"github.com/octobees/desamiantage-leads/internal/handler"
	"github.com/octobees/desamiantage-leads/internal/logging"
	middlewarepkg "github.com/octobees/desamiantage-leads/internal/middleware"
	"github.com/octobees/desamiantage-leads/internal/repository"
	"github.com/octobees/desamiantage-leads/internal/router"
	"github.com/octobees/desamiantage-leads/internal/service"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code; deferred cleanup completes before main exits.
func run() int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("failed to load config: %v", err)
		return 1
	}

	logger := logging.New(cfg.LogLevel)

	deps := app.IntakeDeps{Logger: logger}
	var handlers router.Handlers
	var jwtManager *auth.JWTManager

	if cfg.JournalEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			logger.Error("failed to connect database", "error", err)
			return 1
		}
		defer pool.Close()

		submissionsRepo := repository.NewPGXSubmissionsRepository(pool)
		deps.Journal = submissionsRepo

		if cfg.AdminEnabled() {
			jwtManager = auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
			authService := service.NewAdminAuthService(cfg.AdminEmail, cfg.AdminPasswordHash, jwtManager)
			handlers.Auth = handler.NewAuthHandler(authService)
			handlers.Submissions = handler.NewSubmissionsHandler(service.NewSubmissionsService(submissionsRepo))
		} else {
			logger.Info("admin api disabled: JWT_SECRET, ADMIN_EMAIL and ADMIN_PASSWORD_HASH are required")
		}
	} else {
		logger.Info("submission journal disabled: DATABASE_URL is not set")
	}

	intake := app.NewIntake(context.Background(), cfg, deps)
	handlers.Lead = handler.NewLeadHandler(intake)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging(logger))
	e.Use(echoMiddleware.Recover())

	router.Register(e, cfg, jwtManager, handlers)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "port", cfg.Port)
		serverErr <- e.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			return 1
		}
		return 0
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		return 1
	}
	return 0
}
