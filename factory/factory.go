package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lychee-technology/pagekit"
	"github.com/lychee-technology/pagekit/internal"
	"go.uber.org/zap"
)

const (
	breakerThreshold = 5
	breakerWindow    = 30 * time.Second
	breakerOpenFor   = 15 * time.Second
)

// NewComponentRegistryWithConfig returns config.ComponentRegistry when one is
// set, otherwise a registry loaded from config.Registry.SchemaDirectory.
func NewComponentRegistryWithConfig(config *pagekit.Config) (pagekit.ComponentRegistry, error) {
	if config.ComponentRegistry != nil {
		return config.ComponentRegistry, nil
	}
	if config.Registry.SchemaDirectory == "" {
		return nil, fmt.Errorf("config.Registry.SchemaDirectory is required when no ComponentRegistry is provided")
	}
	return internal.NewFileComponentRegistry(config.Registry.SchemaDirectory)
}

// NewStaticComponentRegistry indexes schemas built in code.
func NewStaticComponentRegistry(schemas ...*pagekit.ComponentSchema) (pagekit.ComponentRegistry, error) {
	return internal.NewStaticComponentRegistry(schemas...)
}

// NewDesignStoreWithConfig builds the DesignStore selected by
// config.Storage.Backend. pool is only used by the postgres backend. Remote
// backends are wrapped in a circuit breaker.
//
// Usage:
//
//	config := pagekit.DefaultConfig(nil)
//	config.Storage.Backend = pagekit.StorageBackendPostgres
//	store, err := factory.NewDesignStoreWithConfig(ctx, config, pool)
func NewDesignStoreWithConfig(ctx context.Context, config *pagekit.Config, pool *pgxpool.Pool) (pagekit.DesignStore, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var store pagekit.DesignStore
	switch config.Storage.Backend {
	case pagekit.StorageBackendMemory, "":
		return internal.NewMemoryDesignStore(), nil
	case pagekit.StorageBackendPostgres:
		if pool == nil {
			return nil, fmt.Errorf("postgres backend requires a connection pool")
		}
		projectID := uuid.Nil
		if config.Storage.ProjectID != "" {
			projectID = uuid.MustParse(config.Storage.ProjectID)
		}
		pg, err := internal.NewPostgresDesignStore(pool, config.Database.TableNames.Designs, projectID)
		if err != nil {
			return nil, err
		}
		store = pg
	case pagekit.StorageBackendS3:
		client, err := internal.NewS3Client(ctx, config.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 client: %w", err)
		}
		s3Store, err := internal.NewS3DesignStore(client, config.S3.Bucket, config.S3.Prefix)
		if err != nil {
			return nil, err
		}
		store = s3Store
	}

	zap.S().Infow("design store ready", "backend", config.Storage.Backend)
	return internal.NewBreakerDesignStore(store, internal.NewCircuitBreaker(breakerThreshold, breakerWindow, breakerOpenFor)), nil
}

// NewEditorWithConfig opens an editing session for one instance of the named
// component. store and sink may be nil.
func NewEditorWithConfig(config *pagekit.Config, componentName, componentID string, store pagekit.DesignStore, sink pagekit.PreviewSink) (pagekit.Editor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.ComponentRegistry == nil {
		return nil, fmt.Errorf("config.ComponentRegistry is required: use NewComponentRegistryWithConfig first")
	}
	schema, err := config.ComponentRegistry.GetComponent(componentName)
	if err != nil {
		return nil, err
	}

	return internal.NewEditorSession(internal.EditorOptions{
		ComponentID: componentID,
		Schema:      schema,
		Config:      config.Editor,
		Store:       store,
		Preview:     sink,
		SaveTimeout: config.Storage.SaveTimeout,
	})
}
