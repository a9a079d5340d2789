package e2e_harness

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lychee-technology/pagekit"
	"github.com/lychee-technology/pagekit/internal"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// SeedPostgres creates the design tables and inserts one project row.
// It returns the project id.
func SeedPostgres(ctx context.Context, db *sql.DB, tables pagekit.TableNames, project string) (uuid.UUID, error) {
	for _, stmt := range internal.DesignTablesDDL(tables) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return uuid.Nil, fmt.Errorf("create table: %w", err)
		}
	}

	id := uuid.New()
	if _, err := db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, name, created_at) VALUES ($1, $2, $3)`, tables.Projects),
		id, project, time.Now().UnixMilli(),
	); err != nil {
		return uuid.Nil, fmt.Errorf("insert project: %w", err)
	}
	return id, nil
}

// CountDesigns returns the number of stored designs for a project.
func CountDesigns(ctx context.Context, db *sql.DB, table string, project uuid.UUID) (int, error) {
	var n int
	err := db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT count(*) FROM %s WHERE project_id = $1`, table), project,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count designs: %w", err)
	}
	return n, nil
}

// NewS3Store builds an S3 design store against a custom endpoint with static
// credentials and makes sure the bucket exists.
func NewS3Store(ctx context.Context, endpoint, accessKey, secretKey, bucket, prefix string) (*internal.S3DesignStore, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion("us-east-1"), // region required by SDK; the custom endpoint decides where requests go
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
	}
	if endpoint != "" {
		loadOpts = append(loadOpts, config.WithBaseEndpoint(endpoint))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	if err := internal.EnsureBucket(ctx, client, bucket); err != nil {
		return nil, err
	}
	return internal.NewS3DesignStore(client, bucket, prefix)
}
