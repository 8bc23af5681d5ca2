package memory

import (
	"github.com/custodia-labs/qpro/internal/adapters/driven/config/kv"
	"github.com/custodia-labs/qpro/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in memory only. Save and Load do nothing.
type ConfigStore struct {
	*kv.Map
}

// NewConfigStore creates an empty in-memory config store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{Map: kv.New()}
}

// Set stores value under key. It never fails.
func (s *ConfigStore) Set(key string, value any) error {
	s.Map.Set(key, value)
	return nil
}

// Save is a no-op.
func (s *ConfigStore) Save() error { return nil }

// Load is a no-op.
func (s *ConfigStore) Load() error { return nil }

// Path reports ":memory:".
func (s *ConfigStore) Path() string { return ":memory:" }
