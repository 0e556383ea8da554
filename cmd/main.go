package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hr_project/internal/config"
	"hr_project/internal/database"
	"hr_project/internal/domain"
	"hr_project/internal/middleware"
	"hr_project/internal/repository"
	grpcserver "hr_project/internal/transport/grpc"
	"hr_project/internal/transport/rest"
	"hr_project/internal/utils"
	"hr_project/internal/utils/blacklist"
	"hr_project/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const tokenBlacklistPrefix = "token_blacklist:"

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("Failed to load configuration", zap.Error(err))
	}

	log := logger.Init(logger.Options{
		Level:      cfg.Log.Level,
		Dev:        cfg.IsDev(),
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("Server stopped with error", zap.Error(err))
	}
	log.Info("Server stopped")
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	var tracer trace.TracerProvider
	if cfg.Telemetry.Endpoint != "" {
		tp, err := middleware.InitTracer(ctx, cfg.Telemetry.Endpoint, cfg.Telemetry.ServiceName, cfg.Env, log)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tp.Shutdown(shutdownCtx)
		}()
		tracer = tp
	}

	db, err := database.Open(cfg.DB, log)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := database.Ping(ctx, db); err != nil {
		return err
	}
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}
	if err := bootstrapAdmin(ctx, db, cfg.Bootstrap, log); err != nil {
		return err
	}

	tokens, err := utils.NewTokenManager(cfg.Auth.SecretKey, cfg.Auth.Algorithm, cfg.Auth.Issuer, cfg.Auth.AccessTokenTTL())
	if err != nil {
		return err
	}

	var (
		bl    blacklist.Blacklist = blacklist.Noop{}
		cache *middleware.RedisCache
	)
	if cfg.Redis.Enabled() {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return err
		}
		bl = blacklist.NewRedisBlacklist(redisClient, tokenBlacklistPrefix)
		cache = middleware.NewRedisCache(redisClient, log)
		log.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	} else {
		log.Warn("Redis is not configured; logout revocation and idempotent replay are disabled")
	}

	handler := rest.NewRouter(rest.Options{
		APIPrefix:          cfg.HTTP.APIPrefix,
		AllowedOrigins:     cfg.HTTP.AllowedOrigins,
		CookieSecure:       cfg.Auth.CookieSecure,
		SystemAPIKey:       cfg.Auth.SystemAPIKey,
		LoginRatePerMinute: cfg.Auth.LoginRatePerMinute,
		LoginBurst:         cfg.Auth.LoginBurst,
	}, rest.Deps{
		DB:        db,
		Tokens:    tokens,
		Blacklist: bl,
		Cache:     cache,
		Metrics:   middleware.NewMetrics(),
		Tracer:    tracer,
		Log:       log,
	})

	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", cfg.HTTP.Addr), zap.String("prefix", cfg.HTTP.APIPrefix))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if cfg.GRPC.Enabled {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			return err
		}
		grpcSrv := grpcserver.NewInternalServer(sqlDB, cfg.Auth.SystemAPIKey, log)
		defer grpcSrv.GracefulStop()
		go func() {
			log.Info("Internal gRPC server listening", zap.String("addr", lis.Addr().String()))
			if err := grpcSrv.Serve(lis); err != nil {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// bootstrapAdmin creates the configured admin account on first start.
func bootstrapAdmin(ctx context.Context, db *gorm.DB, cfg config.BootstrapConfig, log *zap.Logger) error {
	if !cfg.Enabled() {
		return nil
	}
	hash, err := utils.HashPassword(cfg.Password)
	if err != nil {
		return err
	}
	created, err := repository.NewUserRepository(db).EnsureAdmin(ctx, &domain.User{
		Email:        cfg.Email,
		PasswordHash: hash,
		FirstName:    cfg.FirstName,
		LastName:     cfg.LastName,
	})
	if err != nil {
		return err
	}
	if created {
		log.Info("Bootstrap admin created", zap.String("email", cfg.Email))
	}
	return nil
}
