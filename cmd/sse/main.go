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

	"github.com/lawyerhours/backend/internal/adapters/events"
	"github.com/lawyerhours/backend/internal/api/handlers"
	"github.com/lawyerhours/backend/internal/api/middleware"
	"github.com/lawyerhours/backend/internal/infrastructure/clients/redis"
	"github.com/lawyerhours/backend/internal/infrastructure/observability"
	"github.com/lawyerhours/backend/pkg/config"
)

// Standalone relay of refresh progress, for deployments that keep long-lived
// browser connections off the API instances.
func main() {
	cfg, err := config.LoadWithDotEnv(".env", ".env.local")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName+"-sse", cfg.Environment)
	logger := observability.GetLogger()

	redisClient, err := redis.NewClient(context.Background(), &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("Redis is required for the event relay")
	}
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient)
	sseHandler := handlers.NewSSEHandler(eventBus)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := redisClient.Ping(r.Context()); err != nil {
			handlers.RespondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "redis unavailable"})
			return
		}
		handlers.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "OK"})
	})
	mux.HandleFunc("GET /api/refresh/events", sseHandler.StreamRefreshEvents)
	mux.HandleFunc("GET /api/refresh/events/stats", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondWithJSON(w, http.StatusOK, map[string]int{"connected_clients": sseHandler.GetClientCount()})
	})

	var handler http.Handler = mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.CORSMiddleware(cfg.Server.AllowedOrigins)(handler)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", serverAddr).Msg("SSE relay starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("SSE relay failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("SSE relay shutting down")

	// Closing the bus ends every open stream so Shutdown can finish.
	if err := eventBus.Close(); err != nil {
		logger.Warn().Err(err).Msg("error closing event bus")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during shutdown")
	}

	logger.Info().Msg("SSE relay stopped")
}
