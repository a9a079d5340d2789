package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lychee-technology/pagekit"
	"go.uber.org/zap"
)

type designPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresDesignStore keeps one envelope per component instance in a jsonb
// column. When projectID is set every read and write is scoped to it.
type PostgresDesignStore struct {
	pool      designPool
	table     string
	projectID uuid.UUID
	nowFunc   func() time.Time
}

func NewPostgresDesignStore(pool designPool, table string, projectID uuid.UUID) (*PostgresDesignStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres pool cannot be nil")
	}
	if table == "" {
		return nil, fmt.Errorf("designs table name cannot be empty")
	}
	return &PostgresDesignStore{
		pool:      pool,
		table:     table,
		projectID: projectID,
		nowFunc:   time.Now,
	}, nil
}

func (s *PostgresDesignStore) withClock(now func() time.Time) {
	if now == nil {
		return
	}
	s.nowFunc = now
}

func (s *PostgresDesignStore) nowMillis() int64 {
	if s.nowFunc == nil {
		return time.Now().UnixMilli()
	}
	return s.nowFunc().UnixMilli()
}

func (s *PostgresDesignStore) projectArg() any {
	if s.projectID == uuid.Nil {
		return nil
	}
	return s.projectID
}

// Save upserts the envelope and bumps its revision. A row owned by another
// project (or by no project, for a scoped store) is never overwritten.
func (s *PostgresDesignStore) Save(ctx context.Context, componentID string, envelope []byte) error {
	if componentID == "" {
		return pagekit.NewValidationError("componentId", "component id cannot be empty")
	}
	if !json.Valid(envelope) {
		return pagekit.NewInvalidJSONError(fmt.Errorf("envelope for %s is not valid JSON", componentID))
	}

	table := sanitizeIdentifier(s.table)
	query := fmt.Sprintf(`INSERT INTO %s (component_id, project_id, envelope, revision, updated_at)
VALUES ($1, $2, $3, 1, $4)
ON CONFLICT (component_id) DO UPDATE SET
	envelope = EXCLUDED.envelope,
	revision = %s.revision + 1,
	updated_at = EXCLUDED.updated_at
WHERE %s.project_id IS NOT DISTINCT FROM EXCLUDED.project_id`, table, table, table)

	tag, err := s.pool.Exec(ctx, query, componentID, s.projectArg(), envelope, s.nowMillis())
	if err != nil {
		zap.S().Errorw("failed to save design", "componentId", componentID, "table", s.table, "error", err)
		return pagekit.NewSaveFailedError(componentID, err)
	}
	if tag.RowsAffected() == 0 {
		zap.S().Warnw("design owned by another project", "componentId", componentID, "projectId", s.projectID)
		return pagekit.NewDesignConflictError(componentID)
	}
	return nil
}

// Load returns the latest envelope stored for componentID.
func (s *PostgresDesignStore) Load(ctx context.Context, componentID string) ([]byte, error) {
	query := fmt.Sprintf("SELECT envelope FROM %s WHERE component_id = $1", sanitizeIdentifier(s.table))
	args := []any{componentID}
	if s.projectID != uuid.Nil {
		query += " AND project_id = $2"
		args = append(args, s.projectID)
	}

	var envelope []byte
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&envelope); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pagekit.NewDesignNotFoundError(componentID)
		}
		return nil, pagekit.NewPagekitError(pagekit.ErrorTypeStorage, pagekit.ErrCodeStorageUnavailable, "failed to load design").
			WithDetail("componentId", componentID).
			WithCause(err)
	}
	return envelope, nil
}

// Revision reports how many times componentID has been saved.
func (s *PostgresDesignStore) Revision(ctx context.Context, componentID string) (int64, error) {
	query := fmt.Sprintf("SELECT revision FROM %s WHERE component_id = $1", sanitizeIdentifier(s.table))
	args := []any{componentID}
	if s.projectID != uuid.Nil {
		query += " AND project_id = $2"
		args = append(args, s.projectID)
	}
	var revision int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&revision); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, pagekit.NewDesignNotFoundError(componentID)
		}
		return 0, fmt.Errorf("failed to read revision: %w", err)
	}
	return revision, nil
}

// CreateProject inserts a project row and returns its generated id.
func CreateProject(ctx context.Context, pool designPool, table, name string, now time.Time) (uuid.UUID, error) {
	if name == "" {
		return uuid.Nil, pagekit.NewValidationError("name", "project name cannot be empty")
	}
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to generate project id: %w", err)
	}
	query := fmt.Sprintf("INSERT INTO %s (id, name, created_at) VALUES ($1, $2, $3)", sanitizeIdentifier(table))
	if _, err := pool.Exec(ctx, query, id, name, now.UnixMilli()); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create project %q: %w", name, err)
	}
	return id, nil
}

// LookupProject resolves a project id by name.
func LookupProject(ctx context.Context, pool designPool, table, name string) (uuid.UUID, error) {
	query := fmt.Sprintf("SELECT id FROM %s WHERE name = $1", sanitizeIdentifier(table))
	var raw any
	if err := pool.QueryRow(ctx, query, name).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, pagekit.NewPagekitError(pagekit.ErrorTypeNotFound, pagekit.ErrCodeProjectNotFound, "project not found").
				WithDetail("project", name)
		}
		return uuid.Nil, fmt.Errorf("failed to look up project %q: %w", name, err)
	}
	id, ok := toUUID(raw)
	if !ok {
		return uuid.Nil, fmt.Errorf("project %q has an unreadable id %v", name, raw)
	}
	return id, nil
}
