package memory

import (
	"maps"
	"sync"

	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in a map.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
	writes int
}

// NewConfigStore returns an empty store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{values: make(map[string]any)}
}

// Lookup returns the value stored under key.
func (s *ConfigStore) Lookup(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Update applies values, deleting keys whose value is nil.
func (s *ConfigStore) Update(values map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		if v == nil {
			delete(s.values, k)
			continue
		}
		s.values[k] = v
	}
	s.writes++
	return nil
}

// Set stores a single value. Tests use it to seed raw values.
func (s *ConfigStore) Set(key string, value any) {
	_ = s.Update(map[string]any{key: value})
}

// Snapshot copies the current contents.
func (s *ConfigStore) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.values)
}

// Writes counts calls to Update.
func (s *ConfigStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// Path reports that nothing is persisted.
func (s *ConfigStore) Path() string { return ":memory:" }
