package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/octobees/desamiantage-leads/internal/app"
	"github.com/octobees/desamiantage-leads/internal/config"
	"github.com/octobees/desamiantage-leads/internal/database"
	"github.com/octobees/desamiantage-leads/internal/lambdaapi"
	"github.com/octobees/desamiantage-leads/internal/logging"
	"github.com/octobees/desamiantage-leads/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	ctx := context.Background()

	deps := app.IntakeDeps{Logger: logger}
	if cfg.JournalEnabled() {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect database: %v", err)
		}
		defer pool.Close()
		deps.Journal = repository.NewPGXSubmissionsRepository(pool)
	}

	origin := "*"
	if len(cfg.AllowedOrigins) > 0 {
		origin = cfg.AllowedOrigins[0]
	}

	handler := lambdaapi.NewHandler(app.NewIntake(ctx, cfg, deps), origin, logger)
	lambda.Start(handler.Handle)
}
