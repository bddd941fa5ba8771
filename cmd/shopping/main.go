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
	"github.com/iamasit07/cartline/backend/internal/client/authclient"
	"github.com/iamasit07/cartline/backend/internal/config"
	"github.com/iamasit07/cartline/backend/internal/domain"
	"github.com/iamasit07/cartline/backend/internal/logging"
	"github.com/iamasit07/cartline/backend/internal/repository/postgres"
	"github.com/iamasit07/cartline/backend/internal/repository/redis"
	"github.com/iamasit07/cartline/backend/internal/service/admin"
	"github.com/iamasit07/cartline/backend/internal/service/cart"
	"github.com/iamasit07/cartline/backend/internal/service/cleanup"
	"github.com/iamasit07/cartline/backend/internal/service/inventory"
	"github.com/iamasit07/cartline/backend/internal/service/token"
	"github.com/iamasit07/cartline/backend/internal/telemetry"
	transportHttp "github.com/iamasit07/cartline/backend/internal/transport/http"
	"github.com/joho/godotenv"
)

const serviceName = "shopping-service"

func main() {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../.env"); err != nil {
			log.Println("No .env file found")
		}
	}

	cfg := config.LoadConfig("shopping")
	logger := logging.New(os.Stdout, serviceName, cfg.LogLevel)
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}

	// 1. Inventory ledger and carts
	pool, err := postgres.OpenPool(ctx, cfg)
	if err != nil {
		log.Fatalf("Database unreachable: %v", err)
	}
	defer pool.Close()

	if err := postgres.MigratePool(ctx, pool, "shopping"); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	logger.Info(ctx, "database migration completed")

	// 2. Cache with an in-process fallback for stock and view counters
	redisClient := redis.NewClient(ctx, cfg.Redis, logger)
	defer redisClient.Close()
	store := cache.NewBreaker(redis.NewRedisCache(redisClient), cache.NewLocalStore(), cache.BreakerSettings{
		Name:                "shopping-cache",
		ConsecutiveFailures: cfg.Breaker.ConsecutiveFailures,
		OpenTimeout:         cfg.Breaker.OpenTimeout,
	}, logger)

	// 3. Services
	inventoryService := inventory.NewService(
		postgres.NewProductRepo(pool),
		inventory.NewStockCache(store, cfg.StockCacheTTL, logger),
		logger,
	)
	if err := inventoryService.WarmCache(ctx); err != nil {
		logger.Warn(ctx, "stock cache warm-up failed", "err", err)
	}

	cartManager := cart.NewManager(postgres.NewCartRepo(pool), inventoryService, logger)
	adminService := admin.NewService(postgres.NewAdminRepo(pool), store, cfg.AdminKey, logger)
	if !adminService.Enabled() {
		logger.Info(ctx, "ADMIN_KEY not set, admin reset disabled")
	}

	// Token copies written by the auth service are read first; the auth
	// service itself is asked on a miss.
	resolver := token.NewResolver(
		token.NewSessionCache(store),
		authclient.New(cfg.AuthServiceURL, cfg.AuthClientTimeout),
		domain.SourceRemote,
		logger,
	)

	// 4. Background workers
	go cleanup.NewWorker(cartManager, cfg.CartCleanupInterval, logger).Start(ctx)

	// 5. HTTP
	router := transportHttp.NewShoppingRouter(transportHttp.RouterConfig{
		ServiceName:    serviceName,
		AllowedOrigins: cfg.AllowedOrigins,
		Log:            logger,
	},
		transportHttp.NewShoppingHandler(cartManager, inventoryService, logger),
		transportHttp.NewAdminHandler(adminService, logger),
		resolver.Resolve,
	)

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
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "server forced to shutdown", "err", err)
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Error(ctx, "tracer shutdown failed", "err", err)
	}
}
