package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lychee-technology/pagekit"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const headingYAML = `name: heading
fields:
  - key: text
    type: text
    label: Text
    required: true
    default: Welcome
    validationRules:
      - type: max_length
        params:
          max: 80
  - key: level
    type: select
    label: Level
    default: h2
    options:
      - {label: H1, value: h1}
      - {label: H2, value: h2}
`

func writeSchemaDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestRunExportJSONSchemaWritesFiles(t *testing.T) {
	dir := writeSchemaDir(t, map[string]string{"heading.yaml": headingYAML})
	out := filepath.Join(t.TempDir(), "schemas")

	require.NoError(t, runExportJSONSchema([]string{"-schema-dir", dir, "-out", out}))

	data, err := os.ReadFile(filepath.Join(out, "heading.schema.json"))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "text")
	assert.Contains(t, props, "level")
}

func TestRunExportJSONSchemaErrors(t *testing.T) {
	require.Error(t, runExportJSONSchema(nil))

	dir := writeSchemaDir(t, map[string]string{"heading.yaml": headingYAML})
	err := runExportJSONSchema([]string{"-schema-dir", dir, "-component", "ghost", "-out", t.TempDir()})
	assert.True(t, pagekit.IsNotFound(err))
}

func TestRunValidateComponents(t *testing.T) {
	dir := writeSchemaDir(t, map[string]string{"heading.yaml": headingYAML})
	require.NoError(t, runValidateComponents([]string{"-schema-dir", dir}))

	require.Error(t, runValidateComponents(nil))

	broken := writeSchemaDir(t, map[string]string{"broken.json": `{"name":"broken","fields":[{"key":"a","type":"select","label":"A"}]}`})
	require.Error(t, runValidateComponents([]string{"-schema-dir", broken}))
}

func TestCheckDefaults(t *testing.T) {
	schema := &pagekit.ComponentSchema{
		Name: "heading",
		Fields: []pagekit.FieldDefinition{
			{Key: "text", Type: pagekit.FieldTypeText, Label: "Text", Default: "Hi",
				ValidationRules: []pagekit.ValidationRule{{Type: pagekit.RuleMinLength, Params: map[string]any{"min": 5}}}},
		},
	}
	require.Error(t, checkDefaults(schema))

	schema.Fields[0].Default = "Hello there"
	require.NoError(t, checkDefaults(schema))

	require.NoError(t, checkDefaults(&pagekit.ComponentSchema{Name: "empty"}))
}

func TestInitDBOptionsDatabaseConfig(t *testing.T) {
	opts := initDBOptions{
		host:          "db.local",
		port:          5433,
		database:      "pagekit",
		user:          "editor",
		password:      "secret",
		sslMode:       "require",
		projectsTable: "projects",
		designsTable:  "component_designs",
	}

	cfg := opts.databaseConfig()
	assert.Equal(t, "db.local", cfg.Host)
	assert.Equal(t, 5433, cfg.Port)
	assert.Equal(t, "editor", cfg.Username)
	assert.Equal(t, pagekit.TableNames{Projects: "projects", Designs: "component_designs"}, cfg.TableNames)
}

func TestEnsureProject(t *testing.T) {
	ctx := context.Background()

	t.Run("existing project", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		project := uuid.MustParse("44444444-4444-4444-4444-444444444444")
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM "projects" WHERE name = \$1`).
			WithArgs("landing").
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(project.String()))

		tx, err := mock.Begin(ctx)
		require.NoError(t, err)

		id, created, err := ensureProject(ctx, tx, "projects", "landing")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, project, id)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("creates missing project", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM "projects"`).
			WithArgs("landing").
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectExec(`INSERT INTO "projects" \(id, name, created_at\)`).
			WithArgs(pgxmock.AnyArg(), "landing", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		tx, err := mock.Begin(ctx)
		require.NoError(t, err)

		id, created, err := ensureProject(ctx, tx, "projects", "landing")
		require.NoError(t, err)
		assert.True(t, created)
		assert.NotEqual(t, uuid.Nil, id)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
