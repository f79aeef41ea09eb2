// Package file keeps settings in a TOML file, ~/.recall/config.toml by default.
package file

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigFile is the file name inside the config directory.
const ConfigFile = "config.toml"

// table is a decoded TOML table. Dotted keys address nested tables, so
// "ocr.engine" is engine under [ocr].
type table = map[string]any

// ConfigStore reads and writes config.toml. Every Update rewrites the file
// through a temporary file so a crash never leaves it half written.
type ConfigStore struct {
	mu   sync.RWMutex
	path string
	root table
}

// NewConfigStore opens configDir/config.toml, creating the directory if
// needed. An empty configDir means ~/.recall. A missing file is empty.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		configDir = filepath.Join(home, ".recall")
	}
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	s := &ConfigStore{path: filepath.Join(configDir, ConfigFile)}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload discards in-memory state and reads the file again.
func (s *ConfigStore) Reload() error {
	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		data = nil
	case err != nil:
		return fmt.Errorf("reading config: %w", err)
	}

	root := table{}
	if err := toml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("parsing %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.root = root
	s.mu.Unlock()
	return nil
}

// Lookup walks the dotted key through nested tables.
func (s *ConfigStore) Lookup(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node := s.root
	parts := strings.Split(key, ".")
	for _, part := range parts[:len(parts)-1] {
		child, ok := node[part].(table)
		if !ok {
			return nil, false
		}
		node = child
	}
	v, ok := node[parts[len(parts)-1]]
	if _, isTable := v.(table); isTable {
		return nil, false
	}
	return v, ok
}

// Update applies values to a copy of the file contents and writes it. The
// stored contents only change when the write succeeds.
func (s *ConfigStore) Update(values map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := deepCopy(s.root)
	for key, value := range values {
		if err := assign(next, key, value); err != nil {
			return err
		}
	}

	data, err := toml.Marshal(next)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := writeAtomic(s.path, data); err != nil {
		return err
	}
	s.root = next
	return nil
}

// Path returns the file location.
func (s *ConfigStore) Path() string { return s.path }

// assign sets or, for a nil value, removes key in root. Tables emptied by a
// removal are pruned.
func assign(root table, key string, value any) error {
	parts := strings.Split(key, ".")
	for _, p := range parts {
		if p == "" {
			return fmt.Errorf("config key %q has an empty segment", key)
		}
	}

	node := root
	trail := []table{root}
	for i, part := range parts[:len(parts)-1] {
		child, exists := node[part]
		if !exists {
			if value == nil {
				return nil
			}
			child = table{}
			node[part] = child
		}
		t, ok := child.(table)
		if !ok {
			return fmt.Errorf("config key %q conflicts with value at %q", key, strings.Join(parts[:i+1], "."))
		}
		node = t
		trail = append(trail, t)
	}

	leaf := parts[len(parts)-1]
	if _, isTable := node[leaf].(table); isTable {
		return fmt.Errorf("config key %q conflicts with a table", key)
	}
	if value != nil {
		node[leaf] = value
		return nil
	}

	delete(node, leaf)
	for i := len(trail) - 1; i > 0 && len(trail[i]) == 0; i-- {
		delete(trail[i-1], parts[i-1])
	}
	return nil
}

func deepCopy(t table) table {
	out := maps.Clone(t)
	if out == nil {
		out = table{}
	}
	for k, v := range out {
		if child, ok := v.(table); ok {
			out[k] = deepCopy(child)
		}
	}
	return out
}

// writeAtomic replaces path with data via a sibling temporary file.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.toml")
	if err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("writing config: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("writing config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
