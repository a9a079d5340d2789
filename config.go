package pagekit

import (
	"time"

	"github.com/google/uuid"
)

// Config consolidates editor, registry and storage settings
type Config struct {
	Editor   EditorConfig   `json:"editor"`
	Registry RegistryConfig `json:"registry"`
	Storage  StorageConfig  `json:"storage"`
	Database DatabaseConfig `json:"database"`
	S3       S3Config       `json:"s3"`
	Logging  LoggingConfig  `json:"logging"`

	// ComponentRegistry, when set, is used instead of a file-based registry.
	ComponentRegistry ComponentRegistry `json:"-"`
}

// EditorConfig contains per-session editing settings
type EditorConfig struct {
	HistoryLimit      int           `json:"historyLimit"`
	PreviewDebounce   time.Duration `json:"previewDebounce"`
	AutoSaveEnabled   bool          `json:"autoSaveEnabled"`
	AutoSaveDelay     time.Duration `json:"autoSaveDelay"`
	DefaultBreakpoint Breakpoint    `json:"defaultBreakpoint"`
	// StrictKeys rejects SetValue calls for keys the component does not declare.
	StrictKeys bool `json:"strictKeys"`
}

// RegistryConfig contains component registry settings
type RegistryConfig struct {
	SchemaDirectory string `json:"schemaDirectory"`
}

// StorageBackend selects the DesignStore adapter
type StorageBackend string

const (
	StorageBackendMemory   StorageBackend = "memory"
	StorageBackendPostgres StorageBackend = "postgres"
	StorageBackendS3       StorageBackend = "s3"
)

// StorageConfig contains design persistence settings
type StorageConfig struct {
	Backend     StorageBackend `json:"backend"`
	SaveTimeout time.Duration  `json:"saveTimeout"`
	// ProjectID scopes Postgres designs to one project row when set.
	ProjectID string `json:"projectId,omitempty"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Database        string        `json:"database"`
	Username        string        `json:"username"`
	Password        string        `json:"password"`
	SSLMode         string        `json:"sslMode"`
	MaxConnections  int           `json:"maxConnections"`
	MaxIdleConns    int           `json:"maxIdleConns"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime"`
	ConnMaxIdleTime time.Duration `json:"connMaxIdleTime"`
	Timeout         time.Duration `json:"timeout"`
	UseIAMAuth      bool          `json:"useIAMAuth"`
	Region          string        `json:"region"`
	TableNames      TableNames    `json:"tableNames"`
}

// TableNames names the tables used by the Postgres adapters
type TableNames struct {
	Projects string `json:"projects"`
	Designs  string `json:"designs"`
}

// S3Config contains settings for the S3 design store
type S3Config struct {
	Bucket       string `json:"bucket"`
	Prefix       string `json:"prefix"`
	Region       string `json:"region"`
	Endpoint     string `json:"endpoint"`
	UsePathStyle bool   `json:"usePathStyle"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// DefaultConfig returns a default configuration
func DefaultConfig(registry ComponentRegistry) *Config {
	return &Config{
		Editor: EditorConfig{
			HistoryLimit:      50,
			PreviewDebounce:   150 * time.Millisecond,
			AutoSaveEnabled:   false,
			AutoSaveDelay:     2 * time.Second,
			DefaultBreakpoint: BreakpointDesktop,
		},
		Storage: StorageConfig{
			Backend:     StorageBackendMemory,
			SaveTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxConnections:  10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
			Timeout:         10 * time.Second,
			TableNames: TableNames{
				Projects: "projects",
				Designs:  "component_designs",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		ComponentRegistry: registry,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Editor.HistoryLimit < 1 {
		return &ConfigError{Field: "editor.historyLimit", Message: "must be at least 1"}
	}

	if c.Editor.PreviewDebounce < 0 {
		return &ConfigError{Field: "editor.previewDebounce", Message: "must not be negative"}
	}

	if c.Editor.AutoSaveEnabled && c.Editor.AutoSaveDelay <= 0 {
		return &ConfigError{Field: "editor.autoSaveDelay", Message: "must be greater than 0 when auto-save is enabled"}
	}

	if c.Editor.DefaultBreakpoint != "" && !c.Editor.DefaultBreakpoint.Valid() {
		return &ConfigError{Field: "editor.defaultBreakpoint", Message: "must be one of mobile, tablet, desktop"}
	}

	switch c.Storage.Backend {
	case StorageBackendMemory, "":
	case StorageBackendPostgres:
		if c.Database.TableNames.Designs == "" {
			return &ConfigError{Field: "database.tableNames.designs", Message: "is required for the postgres backend"}
		}
		if c.Database.MaxConnections <= 0 {
			return &ConfigError{Field: "database.maxConnections", Message: "must be greater than 0"}
		}
		if c.Storage.ProjectID != "" {
			if _, err := uuid.Parse(c.Storage.ProjectID); err != nil {
				return &ConfigError{Field: "storage.projectId", Message: "must be a UUID"}
			}
		}
	case StorageBackendS3:
		if c.S3.Bucket == "" {
			return &ConfigError{Field: "s3.bucket", Message: "is required for the s3 backend"}
		}
	default:
		return &ConfigError{Field: "storage.backend", Message: "must be one of memory, postgres, s3"}
	}

	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ConfigError) Error() string {
	return "config validation error for field '" + e.Field + "': " + e.Message
}
