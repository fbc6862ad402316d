// Package bootstrap assembles the library's storage, object store, policy
// and auth from configuration. Both binaries under cmd/ share it.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"assetlib/internal/auth"
	"assetlib/internal/config"
	"assetlib/internal/domain/services"
	"assetlib/internal/objectstore"
	"assetlib/internal/policy"
	"assetlib/internal/repository/memory"
	"assetlib/internal/repository/postgres"
	"assetlib/internal/service/library"
)

// Backend holds the wired services and the cleanup for everything opened.
type Backend struct {
	Services *library.Services
	closers  []func()
}

// Close releases resources in reverse order of acquisition
func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// Open builds the library services described by cfg
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	b := &Backend{}

	pol, err := policy.Load(cfg.PolicyFile)
	if err != nil {
		return nil, fmt.Errorf("load access policy: %w", err)
	}

	objects, err := openObjectStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	deps := library.Dependencies{
		Objects: objects,
		Policy:  pol,
		Logger:  logger,
	}

	switch cfg.StorageDriver {
	case "postgres":
		if err := b.openPostgres(ctx, cfg, logger, &deps); err != nil {
			b.Close()
			return nil, err
		}
	case "memory":
		store := memory.NewStore()
		deps.Folders = store.Folders()
		deps.Files = store.Files()
		deps.Grants = store.Grants()
		deps.Teams = store.Teams()
		deps.Audit = store.Audit()
		deps.TxManager = store.TransactionManager()
		logger.Warn("using in-memory storage; data is lost on restart")
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	b.Services = library.SetupServices(deps)
	return b, nil
}

func (b *Backend) openPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger, deps *library.Dependencies) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for the postgres storage driver")
	}

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	b.closers = append(b.closers, pool.Close)

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	if cfg.RunMigrations {
		if err := postgres.RunMigrations(ctx, pool, logger); err != nil {
			return err
		}
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Logger: logger,
	}
	deps.Folders = postgres.NewFolderRepository(repoConfig)
	deps.Files = postgres.NewFileRepository(repoConfig)
	deps.Grants = postgres.NewGrantRepository(repoConfig)
	deps.Teams = postgres.NewTeamRepository(repoConfig)
	deps.Audit = postgres.NewAuditRepository(repoConfig)
	deps.TxManager = postgres.NewTransactionManager(repoConfig)
	return nil
}

func openObjectStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (services.ObjectStore, error) {
	opts := objectstore.Options{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		UseSSL:    cfg.S3UseSSL,
	}

	switch cfg.ObjectStore {
	case "s3":
		store, err := objectstore.NewS3Store(ctx, opts, logger)
		if err != nil {
			return nil, fmt.Errorf("open s3 object store: %w", err)
		}
		return store, nil
	case "minio":
		store, err := objectstore.NewMinioStore(ctx, opts, logger)
		if err != nil {
			return nil, fmt.Errorf("open minio object store: %w", err)
		}
		return store, nil
	case "memory":
		return objectstore.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown object store %q", cfg.ObjectStore)
}

// NewVerifier picks JWKS verification when a JWKS URL is configured and
// falls back to the shared HS256 secret
func NewVerifier(ctx context.Context, cfg *config.Config, logger *slog.Logger) (auth.TokenVerifier, error) {
	if cfg.JWKSURL != "" {
		return auth.NewJWKSVerifier(ctx, cfg.JWKSURL, logger)
	}
	return auth.NewHMACVerifier(cfg.JWTSecret, logger)
}
