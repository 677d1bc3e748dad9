package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"monkey-registry/internal/adapters/storage/dynamo"
	filestore "monkey-registry/internal/adapters/storage/file"
	"monkey-registry/internal/adapters/storage/postgres"
	"monkey-registry/internal/config"
	"monkey-registry/internal/domain/monkeys"
	"monkey-registry/internal/platform/logger"
	"monkey-registry/internal/router"

	"github.com/spf13/afero"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})

	ctx := context.Background()

	repo, err := openRepository(ctx, cfg)
	if err != nil {
		lg.Error("storage init failed", map[string]any{"backend": cfg.StoreBackend, "error": err.Error()})
		os.Exit(1)
	}
	lg.Info("storage ready", map[string]any{"backend": cfg.StoreBackend})

	h := router.NewRouter(router.Options{
		Repo:        repo,
		Log:         lg,
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	lg.Info("starting server", map[string]any{"addr": srv.Addr})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		lg.Error("server error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}

// openRepository construye el backend según config. Tabla/esquema se
// aprovisionan al arrancar, pensado para el modo dev.
func openRepository(ctx context.Context, cfg config.Config) (monkeys.Repository, error) {
	switch cfg.StoreBackend {
	case config.BackendDynamo:
		store, err := dynamo.Open(ctx, dynamo.Config{
			Table:           cfg.DynamoTable,
			Region:          cfg.AWSRegion,
			Endpoint:        cfg.AWSEndpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		if err := store.EnsureTable(ctx); err != nil {
			return nil, err
		}
		return store, nil

	case config.BackendPostgres:
		db, err := postgres.Open(cfg.DBDSN)
		if err != nil {
			return nil, err
		}
		store := postgres.NewStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil

	default:
		return filestore.New(afero.NewOsFs(), cfg.FilePath), nil
	}
}
