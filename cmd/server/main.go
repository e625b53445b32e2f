// Server binary for the secure photo search service.
//
// Usage:
//
//	go run ./cmd/server
//
// All configuration comes from the environment; with no variables set the
// server listens on :8080 with in-memory user and blob storage, suitable for
// local development only.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/GomathyDhanya/SecureSearch/internal/auth"
	"github.com/GomathyDhanya/SecureSearch/internal/config"
	"github.com/GomathyDhanya/SecureSearch/internal/logger"
	"github.com/GomathyDhanya/SecureSearch/internal/server"
	"github.com/GomathyDhanya/SecureSearch/internal/store"
	"github.com/GomathyDhanya/SecureSearch/pkg/blob"
	"github.com/GomathyDhanya/SecureSearch/pkg/hecrypt"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		logger.NewJSON(0).Fatal("failed to load config", "error", err)
	}
	log := logger.NewJSON(cfg.LogLevel)

	ctx := context.Background()

	var st store.Store
	if cfg.Database.DSN != "" {
		if err := store.RunMigrations(cfg.Database.DSN); err != nil {
			log.Fatal("failed to run migrations", "error", err)
		}
		pg, err := store.NewPostgresStore(ctx, cfg.Database.DSN)
		if err != nil {
			log.Fatal("failed to connect to database", "error", err)
		}
		defer pg.Close()
		st = pg
		log.Info("using postgres store")
	} else {
		st = store.NewMemoryStore()
		log.Info("using in-memory store; data will not survive a restart")
	}

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		log.Fatal("failed to set up blob storage", "error", err)
	}
	defer blobs.Close()
	log.Info("blob storage ready", "driver", cfg.Blob.Driver)

	engine, err := hecrypt.NewEngine()
	if err != nil {
		log.Fatal("failed to initialize homomorphic engine", "error", err)
	}

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL)
	authService := auth.NewService(st, tokens)

	srv := server.New(server.Config{
		Address:      cfg.HTTP.Address,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}, st, blobs, authService, engine, log.Logger)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown error", "error", err)
		}
	}()

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server error", "error", err)
	}
}

func newBlobStore(ctx context.Context, cfg *config.Config) (blob.Store, error) {
	switch cfg.Blob.Driver {
	case "memory":
		return blob.NewMemoryStore(), nil
	case "file":
		return blob.NewFileStore(cfg.Blob.Dir)
	case "minio":
		client, err := minio.New(cfg.Minio.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.Minio.AccessKey, cfg.Minio.SecretKey, ""),
			Secure: cfg.Minio.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		return blob.NewMinioStore(ctx, client, cfg.Minio.Bucket)
	default:
		return nil, errors.New("unknown blob driver: " + cfg.Blob.Driver)
	}
}
