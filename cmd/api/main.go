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

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/codecove/codecove-backend/config"
	"github.com/codecove/codecove-backend/internal/auth"
	"github.com/codecove/codecove-backend/internal/bootstrap"
	"github.com/codecove/codecove-backend/internal/files"
	"github.com/codecove/codecove-backend/internal/reconcile"
	"github.com/codecove/codecove-backend/internal/storage/blob"
	"github.com/codecove/codecove-backend/internal/storage/postgres"
)

const serviceName = "codecove-backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.App.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx := context.Background()

	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: postgres.DSN(&cfg.Database)})
	if err != nil {
		logger.Fatal("database unavailable", zap.Error(err))
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, content cache disabled", zap.Error(err))
		rdb = nil
	}

	blobs, err := newBlobStore(ctx, &cfg.Storage)
	if err != nil {
		logger.Fatal("blob store init failed", zap.Error(err))
	}

	verifier, err := auth.NewVerifier(auth.VerifierOptions{
		JWKSURL:  cfg.Auth.JWKSURL(),
		Audience: cfg.Auth.Audience,
		Issuer:   cfg.Auth.Issuer(),
		Refresh:  cfg.Auth.JWKSRefresh,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal("jwks fetch failed", zap.Error(err))
	}
	defer verifier.Close()

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: serviceName,
		Version:     cfg.App.Version,
		DB:          pool,
		Redis:       rdb,
		Blobs:       blobs,
		Verifier:    verifier,
		AuthCfg:     &cfg.Auth,
		Logger:      logger,
	})

	sweeper := reconcile.NewSweeper(blobs, files.NewRepo(pool),
		cfg.Storage.Bucket, cfg.Storage.UploadPrefix, logger)
	cronRunner, err := sweeper.Schedule(cfg.App.SweepSpec)
	if err != nil {
		logger.Fatal("invalid sweep schedule", zap.String("spec", cfg.App.SweepSpec), zap.Error(err))
	}
	defer cronRunner.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func newBlobStore(ctx context.Context, cfg *config.StorageConfig) (blob.Store, error) {
	switch cfg.Backend {
	case "s3":
		return blob.NewS3(ctx, cfg.Bucket, cfg.UploadPrefix, cfg.S3Region)
	default:
		return blob.NewGCS(ctx, cfg.Bucket, cfg.UploadPrefix, cfg.CredentialsPath)
	}
}
