package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lychee-technology/pagekit"
	"github.com/lychee-technology/pagekit/factory"
	"github.com/lychee-technology/pagekit/internal"
	"go.uber.org/zap"
)

// newDesignStore builds the configured DesignStore. For the postgres backend it
// also opens the connection pool, which the returned cleanup closes.
func newDesignStore(ctx context.Context, config *pagekit.Config) (pagekit.DesignStore, func(), error) {
	noop := func() {}

	if config.Storage.Backend != pagekit.StorageBackendPostgres {
		store, err := factory.NewDesignStoreWithConfig(ctx, config, nil)
		return store, noop, err
	}

	pool, err := createDatabasePool(ctx, config.Database)
	if err != nil {
		return nil, noop, err
	}

	store, err := factory.NewDesignStoreWithConfig(ctx, config, pool)
	if err != nil {
		pool.Close()
		return nil, noop, err
	}
	return store, pool.Close, nil
}

// createDatabasePool resolves the password (static or IAM token) and opens a
// verified pgx pool.
func createDatabasePool(ctx context.Context, cfg pagekit.DatabaseConfig) (*pgxpool.Pool, error) {
	if err := internal.ValidatePostgresConfig(cfg); err != nil {
		return nil, err
	}

	var creds aws.CredentialsProvider
	if cfg.UseIAMAuth {
		awsCfg, err := internal.LoadAWSConfig(ctx, cfg.Region)
		if err != nil {
			return nil, fmt.Errorf("failed to load aws config: %w", err)
		}
		creds = awsCfg.Credentials
	}

	password, err := internal.ResolvePostgresPassword(ctx, cfg, creds)
	if err != nil {
		return nil, err
	}

	pool, err := internal.NewPostgresPool(ctx, cfg, password)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	zap.S().Infow("database pool ready", "host", cfg.Host, "database", cfg.Database, "iam", cfg.UseIAMAuth)
	return pool, nil
}
