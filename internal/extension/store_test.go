package extension

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func storePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "config.yaml")
}

func TestStoreSetGet(t *testing.T) {
	s := NewStore(storePath(t))

	cfg := Config{Type: TypeStdio, Name: "My Tool", Cmd: "uvx", Args: []string{"my-tool"}, Timeout: 60}
	require.NoError(t, s.Set(Entry{Enabled: true, Config: cfg}))

	e, ok, err := s.Get("mytool")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, e.Enabled)
	assert.Equal(t, cfg, e.Config)

	_, ok, err = s.Get("nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStorePreservesOtherKeys(t *testing.T) {
	path := storePath(t)
	require.NoError(t, os.WriteFile(path, []byte("provider:\n  name: anthropic\n"), 0o600))

	s := NewStore(path)
	require.NoError(t, s.Set(Entry{Enabled: true, Config: Config{Type: TypeBuiltin, Name: "developer"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(data, &raw))
	assert.Contains(t, raw, "provider")
	assert.Contains(t, raw, "extensions")
}

func TestStoreRemove(t *testing.T) {
	s := NewStore(storePath(t))
	require.NoError(t, s.Set(Entry{Config: Config{Type: TypeBuiltin, Name: "developer"}}))

	require.NoError(t, s.Remove("developer"))
	_, ok, err := s.Get("developer")
	require.NoError(t, err)
	assert.False(t, ok)

	// removing again is a no-op
	require.NoError(t, s.Remove("developer"))
}

func TestStoreSetEnabled(t *testing.T) {
	s := NewStore(storePath(t))
	require.NoError(t, s.Set(Entry{Enabled: true, Config: Config{Type: TypeBuiltin, Name: "developer"}}))

	require.NoError(t, s.SetEnabled("developer", false))
	enabled, err := s.IsEnabled("developer")
	require.NoError(t, err)
	assert.False(t, enabled)

	// unknown keys are ignored
	require.NoError(t, s.SetEnabled("ghost", true))
	enabled, err = s.IsEnabled("ghost")
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestStoreAllSorted(t *testing.T) {
	s := NewStore(storePath(t))
	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, s.Set(Entry{Enabled: true, Config: Config{Type: TypeBuiltin, Name: name}}))
	}

	all, err := s.All()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "alpha", all[0].Config.Name)
	assert.Equal(t, "mid", all[1].Config.Name)
	assert.Equal(t, "zeta", all[2].Config.Name)
}
