package pagekit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig(nil)

	assert.Equal(t, StorageBackendMemory, cfg.Storage.Backend)
	assert.Equal(t, 10*time.Second, cfg.Storage.SaveTimeout)
	assert.Equal(t, 50, cfg.Editor.HistoryLimit)
	assert.Equal(t, 150*time.Millisecond, cfg.Editor.PreviewDebounce)
	assert.Equal(t, 2*time.Second, cfg.Editor.AutoSaveDelay)
	assert.False(t, cfg.Editor.AutoSaveEnabled)
	assert.Equal(t, BreakpointDesktop, cfg.Editor.DefaultBreakpoint)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 10, cfg.Database.MaxConnections)
	assert.Equal(t, TableNames{Projects: "projects", Designs: "component_designs"}, cfg.Database.TableNames)
	assert.Nil(t, cfg.ComponentRegistry)

	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"history limit", func(c *Config) { c.Editor.HistoryLimit = 0 }, "editor.historyLimit"},
		{"negative debounce", func(c *Config) { c.Editor.PreviewDebounce = -time.Millisecond }, "editor.previewDebounce"},
		{"auto-save without delay", func(c *Config) {
			c.Editor.AutoSaveEnabled = true
			c.Editor.AutoSaveDelay = 0
		}, "editor.autoSaveDelay"},
		{"unknown breakpoint", func(c *Config) { c.Editor.DefaultBreakpoint = "watch" }, "editor.defaultBreakpoint"},
		{"postgres without designs table", func(c *Config) {
			c.Storage.Backend = StorageBackendPostgres
			c.Database.TableNames.Designs = ""
		}, "database.tableNames.designs"},
		{"postgres without connections", func(c *Config) {
			c.Storage.Backend = StorageBackendPostgres
			c.Database.MaxConnections = 0
		}, "database.maxConnections"},
		{"postgres with bad project", func(c *Config) {
			c.Storage.Backend = StorageBackendPostgres
			c.Storage.ProjectID = "landing"
		}, "storage.projectId"},
		{"s3 without bucket", func(c *Config) { c.Storage.Backend = StorageBackendS3 }, "s3.bucket"},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "redis" }, "storage.backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig(nil)
			tt.mutate(cfg)

			err := cfg.Validate()
			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestConfigValidateAcceptsBackends(t *testing.T) {
	pg := DefaultConfig(nil)
	pg.Storage.Backend = StorageBackendPostgres
	pg.Storage.ProjectID = "44444444-4444-4444-4444-444444444444"
	assert.NoError(t, pg.Validate())

	s3 := DefaultConfig(nil)
	s3.Storage.Backend = StorageBackendS3
	s3.S3.Bucket = "designs"
	assert.NoError(t, s3.Validate())

	empty := DefaultConfig(nil)
	empty.Storage.Backend = ""
	empty.Editor.DefaultBreakpoint = ""
	assert.NoError(t, empty.Validate())
}
