package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studydrive/internal/api"
	"studydrive/internal/authz"
	"studydrive/internal/config"
	"studydrive/internal/drive"
	"studydrive/internal/logging"
	"studydrive/internal/metrics"
	"studydrive/internal/runtime"
	"studydrive/internal/store"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to service config file")
	flag.Parse()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		log.Printf("startup failed: %v", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Server.LogFormat, cfg.Server.LogLevel, os.Stdout)

	authEngine, err := loadAuthEngine(cfg, logger)
	if err != nil {
		logger.Error("startup failed: authz load", "error", err)
		os.Exit(1)
	}

	objectStore, err := buildStore(context.Background(), cfg)
	if err != nil {
		logger.Error("startup failed: object store", "error", err)
		os.Exit(1)
	}

	obs := metrics.New()
	instrumented := store.WithObserver(objectStore, obs)

	readyCheck := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := objectStore.Exists(ctx, drive.KeyPrefix+".ready-check"); err != nil {
			return fmt.Errorf("object store unreachable: %w", err)
		}
		return nil
	}

	svc := &api.Service{
		Store:              instrumented,
		Authz:              authEngine,
		AuthMode:           cfg.Auth.Mode,
		PublicRead:         cfg.Auth.PublicRead,
		Cache:              drive.NewListCache(time.Duration(cfg.List.CacheTTLSeconds) * time.Second),
		Metrics:            obs,
		MaxUploadBytes:     cfg.Server.MaxUploadBytes,
		DefaultListLimit:   cfg.List.DefaultLimit,
		MaxListLimit:       cfg.List.MaxLimit,
		DefaultSignExpiry:  time.Duration(cfg.Sign.DefaultExpirySeconds) * time.Second,
		MaxSignExpiry:      time.Duration(cfg.Sign.MaxExpirySeconds) * time.Second,
		PathLive:           cfg.Health.PathLive,
		PathReady:          cfg.Health.PathReady,
		ReadyCheck:         readyCheck,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		Now:                time.Now,
		Logger:             logger,
	}
	if cfg.Metrics.Enabled {
		svc.MetricsPath = cfg.Metrics.Path
	}

	handler := withServerHeader(svc.Handler())

	srv, err := runtime.New(cfg, handler, logger)
	if err != nil {
		logger.Error("startup failed: server init", "error", err)
		os.Exit(1)
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-shutdownCh
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if shutdownErr := srv.Shutdown(ctx); shutdownErr != nil {
			logger.Error("graceful shutdown failed", "error", shutdownErr)
		}
	}()

	logger.Info("server starting",
		"addr", cfg.Server.ListenAddress,
		"storage_provider", cfg.Storage.Provider,
		"auth_mode", cfg.Auth.Mode,
		"tls_enabled", cfg.TLS.Enabled,
		"tls_mode", cfg.TLS.Mode,
	)
	if err := srv.Start(); err != nil && err != http.ErrServerClosed {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func loadAuthEngine(cfg config.Config, logger *slog.Logger) (*authz.Engine, error) {
	if cfg.Auth.Mode != api.AuthModeStatic {
		return nil, nil
	}
	warning, err := runtime.CheckAuthFilePermissions(cfg.Auth.AuthorizationFile)
	if err != nil {
		return nil, err
	}
	if warning != "" {
		logger.Warn("authorization file permissions warning", "warning", warning)
	}
	return authz.LoadFile(cfg.Auth.AuthorizationFile)
}

func buildStore(ctx context.Context, cfg config.Config) (store.ObjectStore, error) {
	switch cfg.Storage.Provider {
	case "s3":
		return store.NewS3Store(ctx, store.S3Config{
			Bucket:          cfg.Storage.Bucket,
			Region:          cfg.Storage.Region,
			Endpoint:        cfg.Storage.Endpoint,
			UsePathStyle:    cfg.Storage.UsePathStyle,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
		})
	case "minio":
		return store.NewMinioStore(store.MinioConfig{
			Bucket:          cfg.Storage.Bucket,
			Region:          cfg.Storage.Region,
			Endpoint:        cfg.Storage.Endpoint,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
		})
	case "memory":
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", cfg.Storage.Provider)
	}
}

func withServerHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "studydrive")
		next.ServeHTTP(w, r)
	})
}
