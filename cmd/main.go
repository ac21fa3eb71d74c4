package main

import (
	"log"

	"github.com/codebuildervaibhav/Postman-clone-server/pkg/api"
	"github.com/codebuildervaibhav/Postman-clone-server/pkg/cache"
	"github.com/codebuildervaibhav/Postman-clone-server/pkg/config"
	"github.com/codebuildervaibhav/Postman-clone-server/pkg/executor"
	"github.com/codebuildervaibhav/Postman-clone-server/pkg/middleware"
	"github.com/codebuildervaibhav/Postman-clone-server/pkg/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// 1. Load config with hot reload
	cfgStore, err := config.LoadAndWatch()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg := cfgStore.Get()
	if cfg == nil {
		log.Fatal("Config could not be read")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// 2. Open storage (explicitly constructed, injected everywhere)
	store, err := storage.NewSQLite(cfg.Database.Path)
	if err != nil {
		logger.Fatal("could not open database", zap.Error(err))
	}
	defer store.Close()
	logger.Info("database connected", zap.String("path", cfg.Database.Path))

	// 3. Redis (optional, distributed rate limiting only)
	var rdb *cache.Client
	if cfg.Redis.Enabled {
		rdb, err = cache.NewRedis(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("could not connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		logger.Info("redis connected", zap.String("address", cfg.Redis.Address))
	}

	// 4. Execution core
	dispatcher := executor.NewDispatcher(executor.DispatcherOptions{
		Timeout:          cfg.Executor.Timeout(),
		MaxResponseBytes: cfg.Executor.MaxResponseBytes,
		DenyPrivateHosts: cfg.Executor.DenyPrivateHosts,
	})
	execService := executor.NewService(store, dispatcher, logger)

	// 5. Router and middleware
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Metrics())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiServer := api.New(store, execService, logger, cfg.Auth.SessionTTL())
	apiServer.RegisterRoutes(r,
		middleware.Auth(store),
		middleware.ExecuteRateLimiter(rdb, cfgStore),
	)

	// 6. Start server
	logger.Info("server listening",
		zap.String("port", cfg.Server.Port),
		zap.Int("dispatch_timeout_seconds", cfg.Executor.TimeoutSeconds),
		zap.Bool("ratelimit_enabled", cfg.RateLimit.Enabled))
	if err := r.Run(cfg.Server.Port); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
