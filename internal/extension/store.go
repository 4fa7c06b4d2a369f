package extension

import (
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/okapian/goosectl/internal/config"
)

// extensionsKey is where entries live inside the shared config.yaml.
const extensionsKey = "extensions"

// Entry is one persisted extension: its config plus the enabled flag.
// An entry persisted as enabled means a best-effort registration with
// the running agent was made; registration failures are written back as
// disabled.
type Entry struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Config  Config `yaml:",inline" json:"config"`
}

// Store persists extension entries under the `extensions` key of the
// shared config file, leaving the rest of the file untouched.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a store over the given config file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// load reads the full config file and decodes the extensions map.
func (s *Store) load() (map[string]any, map[string]Entry, error) {
	raw, err := config.LoadRaw(s.path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading extension registry: %w", err)
	}

	entries := map[string]Entry{}
	if node, ok := raw[extensionsKey]; ok {
		data, err := yaml.Marshal(node)
		if err != nil {
			return nil, nil, fmt.Errorf("re-encoding extensions key: %w", err)
		}
		if err := yaml.Unmarshal(data, &entries); err != nil {
			return nil, nil, fmt.Errorf("decoding extensions key: %w", err)
		}
	}
	return raw, entries, nil
}

// save writes the extensions map back into the config file.
func (s *Store) save(raw map[string]any, entries map[string]Entry) error {
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding extensions: %w", err)
	}
	var generic map[string]any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("normalizing extensions: %w", err)
	}
	if generic == nil {
		generic = map[string]any{}
	}
	raw[extensionsKey] = generic
	if err := config.SaveRaw(s.path, raw); err != nil {
		return fmt.Errorf("persisting extension registry: %w", err)
	}
	return nil
}

// Get returns the entry stored under the given key.
func (s *Store) Get(key string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, entries, err := s.load()
	if err != nil {
		return Entry{}, false, err
	}
	e, ok := entries[key]
	return e, ok, nil
}

// Set inserts or replaces an entry, keyed by its config's Key().
func (s *Store) Set(entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, entries, err := s.load()
	if err != nil {
		return err
	}
	entries[entry.Config.Key()] = entry
	return s.save(raw, entries)
}

// Remove deletes an entry by key. Removing a missing key is not an error.
func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, entries, err := s.load()
	if err != nil {
		return err
	}
	delete(entries, key)
	return s.save(raw, entries)
}

// SetEnabled flips the enabled flag on an existing entry. Unknown keys
// are ignored, matching the agent's own registry semantics.
func (s *Store) SetEnabled(key string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, entries, err := s.load()
	if err != nil {
		return err
	}
	e, ok := entries[key]
	if !ok {
		return nil
	}
	e.Enabled = enabled
	entries[key] = e
	return s.save(raw, entries)
}

// All returns every entry, sorted by key for stable output.
func (s *Store) All() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, entries, err := s.load()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Entry, 0, len(entries))
	for _, k := range keys {
		out = append(out, entries[k])
	}
	return out, nil
}

// IsEnabled reports whether the entry exists and is enabled.
func (s *Store) IsEnabled(key string) (bool, error) {
	e, ok, err := s.Get(key)
	if err != nil {
		return false, err
	}
	return ok && e.Enabled, nil
}
