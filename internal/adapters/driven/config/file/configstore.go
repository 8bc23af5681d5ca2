package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/qpro/internal/adapters/driven/config/kv"
	"github.com/custodia-labs/qpro/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigFile is the settings file name inside the config directory.
const ConfigFile = "config.toml"

// ConfigStore keeps settings in a TOML file. Dot keys such as
// "llm.provider" are written as [llm] tables.
type ConfigStore struct {
	*kv.Map

	// writeMu serialises file writes.
	writeMu sync.Mutex
	path    string
}

// NewConfigStore opens <configDir>/config.toml, creating the directory
// if needed. An empty configDir means ~/.qpro. A missing file is not an
// error; an unparsable one is.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("config: resolve home: %w", err)
		}
		configDir = filepath.Join(home, ".qpro")
	}
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return nil, fmt.Errorf("config: create %s: %w", configDir, err)
	}

	s := &ConfigStore{Map: kv.New(), path: filepath.Join(configDir, ConfigFile)}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Set stores value under key and rewrites the file.
func (s *ConfigStore) Set(key string, value any) error {
	s.Map.Set(key, value)
	return s.Save()
}

// Save writes every value to disk with owner-only permissions.
func (s *ConfigStore) Save() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	data, err := toml.Marshal(kv.Nest(s.Snapshot()))
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return os.WriteFile(s.path, data, 0o600)
}

// Load replaces the in-memory values with the file contents.
func (s *ConfigStore) Load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.Replace(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: read %s: %w", s.path, err)
	}

	var tables map[string]any
	if err := toml.Unmarshal(data, &tables); err != nil {
		return fmt.Errorf("config: parse %s: %w", s.path, err)
	}
	s.Replace(kv.Flatten(tables))
	return nil
}

// Path returns the config file location.
func (s *ConfigStore) Path() string {
	return s.path
}
