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

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/invitefeed/config"
	"github.com/d60-Lab/invitefeed/internal/api/handler"
	"github.com/d60-Lab/invitefeed/internal/api/router"
	"github.com/d60-Lab/invitefeed/internal/auth"
	"github.com/d60-Lab/invitefeed/internal/cache"
	"github.com/d60-Lab/invitefeed/internal/repository"
	"github.com/d60-Lab/invitefeed/internal/service"
	"github.com/d60-Lab/invitefeed/pkg/database"
	"github.com/d60-Lab/invitefeed/pkg/logger"
	"github.com/d60-Lab/invitefeed/pkg/tracing"
)

const shutdownTimeout = 10 * time.Second

// @title invitefeed API
// @version 1.0
// @description 邀请关注与时间线服务
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("server exited", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("shutdown completed")
}

func run(ctx context.Context, cfg *config.Config) error {
	gin.SetMode(cfg.Server.Mode)

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			AttachStacktrace: true,
		}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("tracing shutdown", zap.Error(err))
		}
	}()

	db, err := database.InitDB(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()

	var followingCache *cache.FollowingCache
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			// 缓存不可用时降级为直接查库
			logger.Warn("redis unavailable, following cache disabled", zap.Error(err))
		} else {
			followingCache = cache.NewFollowingCache(rdb, cfg.Redis.TTL)
		}
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	inviteRepo := repository.NewInviteRepository(db)
	followRepo := repository.NewFollowRepository(db)

	tokens := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	userService, err := service.NewUserService(userRepo, postRepo, tokens, cfg.BcryptCost)
	if err != nil {
		return err
	}
	h := handler.New(
		userService,
		service.NewInviteService(db, inviteRepo, followRepo, followingCache, cfg.BaseURL),
		service.NewFeedService(followRepo, userRepo, postRepo, followingCache),
		service.NewPublisher(postRepo),
	)

	opts := router.Options{
		EnableGzip:     cfg.Server.EnableGzip,
		EnableSwagger:  cfg.Server.EnableSwagger,
		EnableSentry:   cfg.Sentry.DSN != "",
		RateLimit:      cfg.Server.RateLimit,
		RateBurst:      cfg.Server.RateBurst,
		TrustedProxies: cfg.Server.TrustedProxies,
	}
	if cfg.Tracing.Enabled {
		opts.TracingService = cfg.Tracing.ServiceName
	}

	engine, err := router.Setup(h, tokens, opts)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return serve(ctx, srv)
}

// serve 阻塞直到 ctx 结束或监听失败，随后优雅关闭
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
