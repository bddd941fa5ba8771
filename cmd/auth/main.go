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

	"github.com/iamasit07/cartline/backend/internal/cache"
	"github.com/iamasit07/cartline/backend/internal/config"
	"github.com/iamasit07/cartline/backend/internal/logging"
	"github.com/iamasit07/cartline/backend/internal/repository/postgres"
	"github.com/iamasit07/cartline/backend/internal/repository/redis"
	"github.com/iamasit07/cartline/backend/internal/service/auth"
	"github.com/iamasit07/cartline/backend/internal/service/token"
	"github.com/iamasit07/cartline/backend/internal/telemetry"
	transportHttp "github.com/iamasit07/cartline/backend/internal/transport/http"
	authkit "github.com/iamasit07/cartline/backend/pkg/auth"
	"github.com/joho/godotenv"
)

const serviceName = "auth-service"

func main() {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../.env"); err != nil {
			log.Println("No .env file found")
		}
	}

	cfg := config.LoadConfig("auth")
	logger := logging.New(os.Stdout, serviceName, cfg.LogLevel)
	ctx := context.Background()

	shutdownTracer, err := telemetry.InitTracer(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}

	// 1. Credential store
	db, err := postgres.OpenDB(ctx, cfg)
	if err != nil {
		log.Fatalf("Database unreachable: %v", err)
	}
	defer db.Close()

	if err := postgres.RunMigrations(ctx, db, "auth"); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	logger.Info(ctx, "database migration completed")

	// 2. Session cache. No local fallback: while Redis is down tokens are
	// verified from their signed claims instead.
	redisClient := redis.NewClient(ctx, cfg.Redis, logger)
	defer redisClient.Close()
	sessionStore := cache.NewBreaker(redis.NewRedisCache(redisClient), nil, cache.BreakerSettings{
		Name:                "session-cache",
		ConsecutiveFailures: cfg.Breaker.ConsecutiveFailures,
		OpenTimeout:         cfg.Breaker.OpenTimeout,
	}, logger)

	// 3. Services
	engine := token.NewEngine(sessionStore, authkit.NewSigner(cfg.JWTSecret, cfg.TokenTTL), logger)
	authService := auth.NewService(postgres.NewUserRepo(db), engine, sessionStore, cfg.LoginAttemptWindow, logger)

	// 4. HTTP
	router := transportHttp.NewAuthRouter(transportHttp.RouterConfig{
		ServiceName:    serviceName,
		AllowedOrigins: cfg.AllowedOrigins,
		Log:            logger,
	}, transportHttp.NewAuthHandler(authService, logger), engine.Validate)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info(ctx, "server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "server is shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "server forced to shutdown", "err", err)
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Error(ctx, "tracer shutdown failed", "err", err)
	}
}
