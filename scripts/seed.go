package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/lawyerhours/backend/internal/adapters/database"
	"github.com/lawyerhours/backend/internal/infrastructure/catalog"
	"github.com/lawyerhours/backend/internal/infrastructure/clients/postgres"
	"github.com/lawyerhours/backend/internal/infrastructure/observability"
	"github.com/lawyerhours/backend/pkg/config"
)

// Seeds the cities table from the embedded catalog. Safe to re-run: cities
// are upserted by slug. RESET_DB=true wipes directory data first.
func main() {
	cfg, err := config.LoadWithDotEnv(".env", ".env.local")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-seed", cfg.Environment)
	logger := observability.GetLogger()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pgClient.Close()

	if err := database.EnsureSchema(ctx, pgClient); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply schema")
	}

	if os.Getenv("RESET_DB") == "true" {
		logger.Warn().Msg("RESET_DB=true detected, truncating tables before seeding")
		if _, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				secondary_hours,
				attorney_offices,
				cities
			RESTART IDENTITY CASCADE
		`); err != nil {
			logger.Fatal().Err(err).Msg("failed to truncate tables")
		}
	}

	cat, err := catalog.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load catalog")
	}

	cities := database.NewCityAdapter(pgClient)
	seeded := 0
	for _, city := range cat.Cities() {
		city := city
		city.CreatedAt = time.Now()
		if err := cities.Upsert(ctx, &city); err != nil {
			logger.Error().Err(err).Str("city", city.Slug).Msg("failed to seed city")
			continue
		}
		seeded++
	}

	logger.Info().
		Int("cities", seeded).
		Int("states", len(cat.States())).
		Int("practice_areas", len(cat.PracticeAreas())).
		Msg("seed complete")
}
