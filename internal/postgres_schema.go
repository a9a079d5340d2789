package internal

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lychee-technology/pagekit"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// DesignTablesDDL returns the statements that create the project and design
// tables, in dependency order. Every statement is idempotent.
func DesignTablesDDL(tables pagekit.TableNames) []string {
	projects := sanitizeIdentifier(tables.Projects)
	designs := sanitizeIdentifier(tables.Designs)

	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id          UUID PRIMARY KEY,
		name        TEXT UNIQUE NOT NULL,
		created_at  BIGINT NOT NULL
	)`, projects),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		component_id  TEXT PRIMARY KEY,
		project_id    UUID REFERENCES %s (id) ON DELETE CASCADE,
		envelope      JSONB NOT NULL,
		revision      BIGINT NOT NULL DEFAULT 1,
		updated_at    BIGINT NOT NULL
	)`, designs, projects),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (project_id, updated_at DESC)`,
			sanitizeIdentifier(indexName(tables.Designs, "project")), designs),
	}
}

// EnsureDesignTables runs DesignTablesDDL against db.
func EnsureDesignTables(ctx context.Context, db execer, tables pagekit.TableNames) error {
	if tables.Projects == "" || tables.Designs == "" {
		return fmt.Errorf("projects and designs table names are required")
	}
	for _, stmt := range DesignTablesDDL(tables) {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure design tables: %w", err)
		}
	}
	return nil
}

func indexName(table, suffix string) string {
	base := strings.ReplaceAll(table, ".", "_")
	base = strings.ReplaceAll(base, `"`, "")
	return fmt.Sprintf("%s_%s_idx", base, suffix)
}
