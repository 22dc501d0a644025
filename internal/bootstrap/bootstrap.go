// Package bootstrap provides dependency initialization for the evidence API.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vendorwatch/evidence-api/internal/access"
	"github.com/vendorwatch/evidence-api/internal/config"
	"github.com/vendorwatch/evidence-api/internal/evidence"
	"github.com/vendorwatch/evidence-api/internal/objectstore"
	"github.com/vendorwatch/evidence-api/internal/promote"
	"github.com/vendorwatch/evidence-api/internal/sigv4"
	"github.com/vendorwatch/evidence-api/internal/upload"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	Gateway  *upload.Gateway
	Issuer   *access.Issuer
	Workflow *promote.Workflow

	pool *pgxpool.Pool
}

// Close releases resources held by the dependency graph.
func (d *Dependencies) Close() {
	if d.pool != nil {
		d.pool.Close()
	}
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	store, err := objectstore.NewClient(sigv4.Credentials{
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		AccountID:       cfg.AccountID,
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}

	deps := &Dependencies{}

	records, cases, guard, pool, err := initRepositories(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	deps.pool = pool

	urlTTL := time.Duration(cfg.SignedURLTTLSeconds) * time.Second

	deps.Gateway = upload.NewGateway(store, records, cfg.TempBucket, logger,
		upload.WithSignedURLTTL(urlTTL),
	)

	policy := access.RecordPolicy(records, cases)
	deps.Issuer = access.NewIssuer(store, policy, cfg.TempBucket, cfg.PermanentBucket, logger,
		access.WithSignedURLTTL(urlTTL),
	)

	deps.Workflow = promote.NewWorkflow(store, records, guard, cfg.TempBucket, cfg.PermanentBucket, logger)

	return deps, nil
}

// initRepositories selects the evidence persistence backend. A configured
// database URL enables the Postgres-backed store; otherwise everything runs
// in memory, which is only suitable for local development and tests.
func initRepositories(ctx context.Context, cfg *config.Config, logger *slog.Logger) (evidence.Repository, evidence.CaseDirectory, evidence.PromotionGuard, *pgxpool.Pool, error) {
	if cfg.DatabaseEnabled() {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("create database pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, nil, fmt.Errorf("ping database: %w", err)
		}
		store := evidence.NewPostgresStore(pool)
		logger.Info("postgres evidence store configured")
		return store, store, store, pool, nil
	}

	store := evidence.NewMemoryStore()
	logger.Info("in-memory evidence store configured")
	return store, store, store, nil, nil
}
