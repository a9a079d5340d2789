package main

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lychee-technology/pagekit"
	"github.com/lychee-technology/pagekit/factory"
	"github.com/lychee-technology/pagekit/internal"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// Server serves component schemas and stored designs over HTTP
type Server struct {
	registry  pagekit.ComponentRegistry
	store     pagekit.DesignStore
	validator *pagekit.Validator
	editor    pagekit.EditorConfig
	origins   []string
	mux       *http.ServeMux
}

// NewServer creates a new Server instance
func NewServer(registry pagekit.ComponentRegistry, store pagekit.DesignStore, editor pagekit.EditorConfig) *Server {
	return &Server{
		registry:  registry,
		store:     store,
		validator: pagekit.NewValidator(),
		editor:    editor,
		mux:       http.NewServeMux(),
	}
}

// RegisterRoutes registers all API routes
func (s *Server) RegisterRoutes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/api/v1/components", s.handleListComponents)
	s.mux.HandleFunc("/api/v1/components/", s.componentHandler)
	s.mux.HandleFunc("/api/v1/designs/", s.designHandler)
	s.mux.HandleFunc("/api/v1/preview/", s.handlePreview)
	s.mux.Handle("/metrics", promhttp.Handler())
}

// AllowOrigins restricts cross-origin requests and preview sockets to
// origins. With none set every origin is accepted.
func (s *Server) AllowOrigins(origins ...string) {
	s.origins = origins
}

func (s *Server) originAllowed(origin string) bool {
	if origin == "" || len(s.origins) == 0 {
		return true
	}
	for _, o := range s.origins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// Handler wraps the routes with CORS handling
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
		},
		MaxAge: 300,
	})
	return c.Handler(s.mux)
}

// Start starts the HTTP server on the given port
func (s *Server) Start(port string) error {
	zap.S().Infow("starting server", "port", port, "allowedOrigins", s.origins)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	config := loadConfigFromEnv()
	sugar.Infow("configuration loaded",
		"schemaDir", config.Registry.SchemaDirectory,
		"backend", config.Storage.Backend,
	)

	registry, err := factory.NewComponentRegistryWithConfig(config)
	if err != nil {
		sugar.Fatalf("failed to create component registry: %v", err)
	}
	config.ComponentRegistry = registry

	if err := internal.RegisterPrometheusTelemetry(prometheus.DefaultRegisterer); err != nil {
		sugar.Fatalf("failed to register metrics: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, cleanup, err := newDesignStore(ctx, config)
	cancel()
	if err != nil {
		sugar.Fatalf("failed to create design store: %v", err)
	}
	defer cleanup()

	server := NewServer(registry, store, config.Editor)
	server.AllowOrigins(splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"))...)
	server.RegisterRoutes()

	port := getEnv("PORT", "8080")
	if err := server.Start(port); err != nil {
		sugar.Fatalf("server error: %v", err)
	}
}

// loadConfigFromEnv overlays environment variables on pagekit.DefaultConfig
func loadConfigFromEnv() *pagekit.Config {
	config := pagekit.DefaultConfig(nil)

	config.Registry.SchemaDirectory = getEnv("SCHEMA_DIR", "components")
	config.Editor.HistoryLimit = getEnvInt("EDITOR_HISTORY_LIMIT", config.Editor.HistoryLimit)
	config.Editor.StrictKeys = getEnvBool("EDITOR_STRICT_KEYS", false)

	config.Storage.Backend = pagekit.StorageBackend(getEnv("STORAGE_BACKEND", string(pagekit.StorageBackendMemory)))
	config.Storage.SaveTimeout = time.Duration(getEnvInt("STORAGE_SAVE_TIMEOUT_SECONDS", 10)) * time.Second
	config.Storage.ProjectID = getEnv("PROJECT_ID", "")

	config.Database = pagekit.DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvInt("DB_PORT", 5432),
		Database:        getEnv("DB_NAME", "pagekit"),
		Username:        getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", ""),
		SSLMode:         getEnv("DB_SSL_MODE", "disable"),
		MaxConnections:  getEnvInt("DB_MAX_CONNECTIONS", 10),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 2),
		ConnMaxLifetime: time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME_SECONDS", 1800)) * time.Second,
		ConnMaxIdleTime: time.Duration(getEnvInt("DB_CONN_MAX_IDLE_TIME_SECONDS", 300)) * time.Second,
		Timeout:         time.Duration(getEnvInt("DB_TIMEOUT_SECONDS", 10)) * time.Second,
		UseIAMAuth:      getEnvBool("DB_USE_IAM_AUTH", false),
		Region:          getEnv("AWS_REGION", ""),
		TableNames: pagekit.TableNames{
			Projects: getEnv("PROJECTS_TABLE", "projects"),
			Designs:  getEnv("DESIGNS_TABLE", "component_designs"),
		},
	}

	config.S3 = pagekit.S3Config{
		Bucket:       getEnv("S3_BUCKET", ""),
		Prefix:       getEnv("S3_PREFIX", "designs"),
		Region:       getEnv("AWS_REGION", ""),
		Endpoint:     getEnv("S3_ENDPOINT", ""),
		UsePathStyle: getEnvBool("S3_USE_PATH_STYLE", false),
	}

	return config
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
