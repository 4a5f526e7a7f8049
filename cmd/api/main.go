package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lawyerhours/backend/internal/api/handlers"
	"github.com/lawyerhours/backend/internal/api/middleware"
	"github.com/lawyerhours/backend/internal/api/routes"
	"github.com/lawyerhours/backend/internal/bootstrap"
	"github.com/lawyerhours/backend/internal/infrastructure/observability"
	"github.com/lawyerhours/backend/pkg/config"
)

func main() {
	cfg, err := config.LoadWithDotEnv(".env", ".env.local")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName+"-api", cfg.Environment)
	logger := observability.GetLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stack, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start")
	}
	defer stack.Close(ctx)

	if err := cfg.Places.Validate(); err != nil {
		logger.Warn().Err(err).Msg("refresh endpoints will reject requests until the Places API key is fixed")
	}

	var sseHandler *handlers.SSEHandler
	var cacheMiddleware *middleware.CacheMiddleware
	if stack.Cache != nil {
		sseHandler = handlers.NewSSEHandler(stack.Events)
		cacheMiddleware = middleware.NewCacheMiddleware(stack.Cache)
	}

	router := routes.NewRouter(
		handlers.NewRefreshHandler(stack.Refresh),
		handlers.NewDirectoryHandler(stack.Directory),
		sseHandler,
		cacheMiddleware,
		cfg.Server.AllowedOrigins,
		stack.Metrics,
	)
	router.AddHealthCheck("postgres", stack.Postgres.Ping)
	if stack.Redis != nil {
		router.AddHealthCheck("redis", stack.Redis.Ping)
	}

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     router.SetupRoutes(),
		ReadTimeout: 15 * time.Second,
		// Bulk refresh streams run for minutes; streaming handlers end with the client.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during server shutdown")
	}
	cancel()

	logger.Info().Msg("server stopped")
}
