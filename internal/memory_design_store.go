package internal

import (
	"context"
	"sync"

	"github.com/lychee-technology/pagekit"
)

// MemoryDesignStore keeps envelopes in process memory.
type MemoryDesignStore struct {
	mu      sync.RWMutex
	designs map[string][]byte
}

// NewMemoryDesignStore creates an empty store.
func NewMemoryDesignStore() *MemoryDesignStore {
	return &MemoryDesignStore{designs: make(map[string][]byte)}
}

func (s *MemoryDesignStore) Save(ctx context.Context, componentID string, envelope []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.designs[componentID] = append([]byte(nil), envelope...)
	return nil
}

func (s *MemoryDesignStore) Load(ctx context.Context, componentID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.designs[componentID]
	if !ok {
		return nil, pagekit.NewDesignNotFoundError(componentID)
	}
	return append([]byte(nil), data...), nil
}
