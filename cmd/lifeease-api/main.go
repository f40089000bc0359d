package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/life-ease-api/api/swagger"
	"github.com/noah-isme/life-ease-api/internal/handler"
	"github.com/noah-isme/life-ease-api/internal/middleware"
	"github.com/noah-isme/life-ease-api/internal/realtime"
	"github.com/noah-isme/life-ease-api/internal/repository"
	"github.com/noah-isme/life-ease-api/internal/service"
	"github.com/noah-isme/life-ease-api/pkg/cache"
	"github.com/noah-isme/life-ease-api/pkg/config"
	"github.com/noah-isme/life-ease-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/life-ease-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/life-ease-api/pkg/middleware/requestid"
)

// @title Life Ease API
// @version 1.0
// @description Tasks, chat and water tracking with a realtime websocket channel
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	st, err := openStores(ctx, cfg, logr)
	if err != nil {
		return err
	}
	defer st.close()

	readiness := map[string]handler.ReadinessCheck{cfg.StoreDriver: st.ready}
	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, profile cache disabled", zap.Error(err))
		} else {
			defer client.Close() //nolint:errcheck
			cacheRepo = repository.NewCacheRepository(client)
			readiness["redis"] = func(ctx context.Context) error { return pingRedis(ctx, client) }
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.ProfileTTL, logr, cacheRepo != nil)

	tokens, err := service.NewTokenService(service.TokenConfig{
		AccessSecret:  cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Issuer:        cfg.JWT.Issuer,
	})
	if err != nil {
		return fmt.Errorf("token service: %w", err)
	}

	router := realtime.NewRouter(tokens, metrics, logr.Named("realtime"))
	notifier := service.NewNotifier(router, service.NotifierConfig{
		Workers:    cfg.Notifier.Workers,
		BufferSize: cfg.Notifier.BufferSize,
		MaxRetries: cfg.Notifier.MaxRetries,
	}, metrics, logr.Named("notifier"))
	notifier.Start(ctx)
	defer notifier.Stop()

	validate := validator.New()
	authSvc := service.NewAuthService(st.users, tokens, validate, logr)
	userSvc := service.NewUserService(st.users, cacheSvc, router, validate, logr)
	taskSvc := service.NewTaskService(st.tasks, notifier, validate, logr)
	messageSvc := service.NewMessageService(st.messages, notifier, validate, logr)
	waterSvc := service.NewWaterService(st.water, validate, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(middleware.Metrics(metrics))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	handler.Register(r, handler.Routes{
		APIPrefix: cfg.APIPrefix,
		Session:   middleware.JWT(tokens, metrics),
		Auth:      handler.NewAuthHandler(authSvc),
		Users:     handler.NewUserHandler(userSvc),
		Tasks:     handler.NewTaskHandler(taskSvc),
		Messages:  handler.NewMessageHandler(messageSvc),
		Water:     handler.NewWaterHandler(waterSvc),
		Metrics:   handler.NewMetricsHandler(metrics, readiness),
		Realtime: realtime.NewHandler(router, realtime.HandlerConfig{
			SendBuffer:     cfg.Realtime.SendBuffer,
			MaxMessageSize: cfg.Realtime.MaxMessageSize,
			CheckOrigin:    corsmiddleware.CheckOrigin(cfg.CORS.AllowedOrigins),
		}, metrics, logr.Named("realtime")),
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func pingRedis(ctx context.Context, client redis.UniversalClient) error {
	return client.Ping(ctx).Err()
}
