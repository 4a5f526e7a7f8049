package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jasonlvhit/gocron"
	"github.com/lawyerhours/backend/internal/application/services"
	"github.com/lawyerhours/backend/internal/bootstrap"
	"github.com/lawyerhours/backend/internal/domain/entities"
	"github.com/lawyerhours/backend/internal/infrastructure/observability"
	"github.com/lawyerhours/backend/pkg/config"
	"github.com/rs/zerolog"
)

func main() {
	var once bool
	var force bool
	var cities string
	var strategy string
	var offset int
	var limit int
	var interval time.Duration

	flag.BoolVar(&once, "once", false, "Run a single bulk refresh and exit")
	flag.BoolVar(&force, "force", false, "Refresh cities even when recently fetched")
	flag.StringVar(&cities, "cities", "", "Comma separated city slugs (default: whole catalog)")
	flag.StringVar(&strategy, "strategy", "", "Fetch strategy override: grid, multi-radius or single")
	flag.IntVar(&offset, "offset", 0, "Catalog offset when no cities are given")
	flag.IntVar(&limit, "limit", 0, "Catalog limit when no cities are given (0 = all)")
	flag.DurationVar(&interval, "interval", 0, "Schedule interval (default REFRESH_SCHEDULE_INTERVAL)")
	flag.Parse()

	cfg, err := config.LoadWithDotEnv(".env", ".env.local")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName+"-refresher", cfg.Environment)
	logger := observability.GetLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	stack, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start")
	}
	defer stack.Close(ctx)

	req := services.BulkRequest{
		Force:    force,
		Offset:   offset,
		Limit:    limit,
		Strategy: entities.FetchStrategy(strategy),
	}
	for _, slug := range strings.Split(cities, ",") {
		if slug = strings.TrimSpace(slug); slug != "" {
			req.CitySlugs = append(req.CitySlugs, slug)
		}
	}

	run := func() {
		runBulk(ctx, stack.Refresh, req, logger)
	}

	if once {
		run()
		return
	}

	if interval <= 0 {
		interval = cfg.Refresh.ScheduleInterval
	}
	minutes := uint64(interval / time.Minute)
	if minutes == 0 {
		minutes = 1
	}

	scheduler := gocron.NewScheduler()
	if err := scheduler.Every(minutes).Minutes().Do(run); err != nil {
		logger.Fatal().Err(err).Msg("failed to schedule bulk refresh")
	}

	logger.Info().Dur("interval", time.Duration(minutes)*time.Minute).Msg("refresh scheduler started")
	run()
	stopped := scheduler.Start()

	<-ctx.Done()
	stopped <- true
	scheduler.Clear()
	logger.Info().Msg("refresh scheduler stopped")
}

// runBulk performs one synchronous bulk refresh. Jobs run on the scheduler's
// goroutine, so runs never overlap.
func runBulk(ctx context.Context, refresh *services.RefreshService, req services.BulkRequest, logger *zerolog.Logger) {
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	result, err := refresh.RefreshBatch(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("bulk refresh rejected")
		return
	}

	for _, city := range result.Results {
		if city.Phase == entities.PhaseError {
			logger.Warn().Str("city", city.CitySlug).Str("error", city.Error).Msg("city refresh failed")
		}
	}
	logger.Info().
		Str("run_id", result.RunID).
		Int("cities_complete", result.Summary.CitiesComplete).
		Int("cities_skipped", result.Summary.CitiesSkipped).
		Int("cities_error", result.Summary.CitiesError).
		Int("total_created", result.Summary.TotalCreated).
		Int("total_updated", result.Summary.TotalUpdated).
		Int("total_api_calls", result.Summary.TotalAPICalls).
		Dur("duration", time.Since(start)).
		Msg("bulk refresh finished")
}
