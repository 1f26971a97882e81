package memory

import (
	"sync"

	"github.com/custodia-labs/hotelrag/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in process memory. With a base store it acts as
// an overlay: reads fall through to the base, writes stay here. --in-memory
// runs use it so settings edits never reach the config file.
type ConfigStore struct {
	mu     sync.RWMutex
	base   driven.ConfigStore
	values map[string]any
}

// NewConfigStore returns an empty store with no base.
func NewConfigStore() *ConfigStore {
	return NewOverlay(nil)
}

// NewOverlay returns a store that reads through to base. base may be nil.
func NewOverlay(base driven.ConfigStore) *ConfigStore {
	return &ConfigStore{base: base, values: make(map[string]any)}
}

// Get returns the local value, else the base value.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	val, ok := s.values[key]
	s.mu.RUnlock()
	if ok || s.base == nil {
		return val, ok
	}
	return s.base.Get(key)
}

func (s *ConfigStore) GetString(key string) string {
	str, _ := s.lookup(key).(string)
	return str
}

func (s *ConfigStore) GetInt(key string) int {
	switch v := s.lookup(key).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func (s *ConfigStore) GetFloat(key string) float64 {
	switch v := s.lookup(key).(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

func (s *ConfigStore) GetBool(key string) bool {
	b, _ := s.lookup(key).(bool)
	return b
}

func (s *ConfigStore) lookup(key string) any {
	val, _ := s.Get(key)
	return val
}

// Set records value locally. The base is never written.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Save is a no-op.
func (s *ConfigStore) Save() error { return nil }

// Load drops local values so reads see the base again.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]any)
	return nil
}

// Path is the base path, or ":memory:" without a base.
func (s *ConfigStore) Path() string {
	if s.base == nil {
		return ":memory:"
	}
	return s.base.Path()
}
