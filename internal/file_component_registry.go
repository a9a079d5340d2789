package internal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/lychee-technology/pagekit"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// fileComponentRegistry loads component schemas from a directory. Each
// *.json, *.yaml or *.yml file holds exactly one component. Schemas are
// checked on load and treated as read-only afterwards.
type fileComponentRegistry struct {
	mu         sync.RWMutex
	dir        string
	components map[string]*pagekit.ComponentSchema
}

// NewFileComponentRegistry scans dir and returns a registry over every
// component found there. Any unreadable or invalid file fails the load.
func NewFileComponentRegistry(dir string) (pagekit.ComponentRegistry, error) {
	r := &fileComponentRegistry{dir: dir}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload rescans the directory. On error the previously loaded set is kept.
func (r *fileComponentRegistry) Reload() error {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("failed to read component directory %s: %w", r.dir, err)
	}

	components := make(map[string]*pagekit.ComponentSchema)
	sources := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !isComponentFile(entry.Name()) {
			continue
		}
		path := filepath.Join(r.dir, entry.Name())
		schema, err := loadComponentFile(path)
		if err != nil {
			return err
		}
		if prev, dup := sources[schema.Name]; dup {
			return fmt.Errorf("component %q is defined in both %s and %s", schema.Name, prev, path)
		}
		components[schema.Name] = schema
		sources[schema.Name] = path
	}

	r.mu.Lock()
	r.components = components
	r.mu.Unlock()

	zap.S().Infow("loaded component schemas", "dir", r.dir, "count", len(components))
	return nil
}

func isComponentFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func loadComponentFile(path string) (*pagekit.ComponentSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read component file %s: %w", path, err)
	}
	schema, err := ParseComponentSchema(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse component file %s: %w", path, err)
	}
	if schema.Name == "" {
		schema.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := schema.Check(); err != nil {
		return nil, fmt.Errorf("component file %s: %w", path, err)
	}
	return schema, nil
}

// ParseComponentSchema decodes a component schema document. ext selects the
// decoder; anything other than .yaml or .yml is read as JSON.
func ParseComponentSchema(data []byte, ext string) (*pagekit.ComponentSchema, error) {
	var schema pagekit.ComponentSchema
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &schema); err != nil {
			return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &schema); err != nil {
			return nil, fmt.Errorf("failed to unmarshal json: %w", err)
		}
	}
	return &schema, nil
}

func (r *fileComponentRegistry) GetComponent(name string) (*pagekit.ComponentSchema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schema, ok := r.components[name]
	if !ok {
		return nil, pagekit.NewComponentNotFoundError(name)
	}
	return schema, nil
}

func (r *fileComponentRegistry) ListComponents() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// staticComponentRegistry serves schemas registered in code.
type staticComponentRegistry struct {
	components map[string]*pagekit.ComponentSchema
}

// NewStaticComponentRegistry checks every schema and indexes it by name.
func NewStaticComponentRegistry(schemas ...*pagekit.ComponentSchema) (pagekit.ComponentRegistry, error) {
	r := &staticComponentRegistry{components: make(map[string]*pagekit.ComponentSchema, len(schemas))}
	for _, schema := range schemas {
		if schema == nil {
			continue
		}
		if err := schema.Check(); err != nil {
			return nil, err
		}
		if _, dup := r.components[schema.Name]; dup {
			return nil, fmt.Errorf("component %q registered twice", schema.Name)
		}
		r.components[schema.Name] = schema
	}
	return r, nil
}

func (r *staticComponentRegistry) GetComponent(name string) (*pagekit.ComponentSchema, error) {
	schema, ok := r.components[name]
	if !ok {
		return nil, pagekit.NewComponentNotFoundError(name)
	}
	return schema, nil
}

func (r *staticComponentRegistry) ListComponents() []string {
	names := make([]string, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
