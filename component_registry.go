package pagekit

// ComponentRegistry provides component schema lookup operations.
// Implementations can load schemas from files, embedded data or other sources.
type ComponentRegistry interface {
	// GetComponent retrieves a component schema by name
	GetComponent(name string) (*ComponentSchema, error)
	// ListComponents returns the registered component names in sorted order
	ListComponents() []string
}
