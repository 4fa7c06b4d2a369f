package recipe

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okapian/goosectl/internal/logging"
)

func testStore(t *testing.T) (*Store, string, string) {
	t.Helper()
	global := t.TempDir()
	local := t.TempDir()
	return NewStore(global, local, logging.New(io.Discard, "silent")), global, local
}

func TestStoreSave(t *testing.T) {
	s, global, _ := testStore(t)

	m, err := s.Save(validRecipe(), true)
	require.NoError(t, err)
	assert.Equal(t, "Code Review", m.Name)
	assert.True(t, m.IsGlobal)
	assert.Equal(t, filepath.Join(global, "code-review.yaml"), m.Path)
	assert.Len(t, m.ID, 16)

	r, err := FromFile(m.Path)
	require.NoError(t, err)
	assert.Equal(t, "Code Review", r.Title)
}

func TestStoreSaveInvalidWritesNothing(t *testing.T) {
	s, global, local := testStore(t)

	_, err := s.Save(&Recipe{Title: "t", Description: "d"}, true)
	require.Error(t, err)

	for _, dir := range []string{global, local} {
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries, "validation failure must not touch disk")
	}
}

func TestStoreSaveDuplicateTitle(t *testing.T) {
	s, _, _ := testStore(t)

	_, err := s.Save(validRecipe(), true)
	require.NoError(t, err)

	r := validRecipe()
	r.Title = "code review" // uniqueness check is case-insensitive
	_, err = s.Save(r, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestStoreSaveLocal(t *testing.T) {
	s, _, local := testStore(t)

	m, err := s.Save(validRecipe(), false)
	require.NoError(t, err)
	assert.False(t, m.IsGlobal)
	assert.Equal(t, filepath.Join(local, "code-review.yaml"), m.Path)
}

func TestStoreSaveNoLocalDir(t *testing.T) {
	s := NewStore(t.TempDir(), "", logging.New(io.Discard, "silent"))
	_, err := s.Save(validRecipe(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no project-local recipe directory")
}

func TestStoreImportFile(t *testing.T) {
	s, _, _ := testStore(t)

	src := filepath.Join(t.TempDir(), "r.yaml")
	require.NoError(t, os.WriteFile(src, []byte("title: Imported\ndescription: d\nprompt: p\n"), 0o600))

	m, err := s.Import(src, true)
	require.NoError(t, err)
	assert.Equal(t, "Imported", m.Name)
}

func TestStoreImportDeeplink(t *testing.T) {
	s, _, _ := testStore(t)

	link, err := EncodeDeeplink(validRecipe())
	require.NoError(t, err)

	m, err := s.Import(link, true)
	require.NoError(t, err)
	assert.Equal(t, "Code Review", m.Name)
}

func TestStoreImportInvalidDeeplink(t *testing.T) {
	s, global, _ := testStore(t)

	r := &Recipe{Title: "t"} // missing description and instructions/prompt
	link, err := EncodeDeeplink(r)
	require.NoError(t, err)

	_, err = s.Import(link, true)
	require.Error(t, err)

	entries, err := os.ReadDir(global)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStoreListNewestFirst(t *testing.T) {
	s, global, local := testStore(t)

	older := validRecipe()
	_, err := s.Save(older, true)
	require.NoError(t, err)
	oldPath := filepath.Join(global, "code-review.yaml")
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(oldPath, past, past))

	newer := validRecipe()
	newer.Title = "Fresh One"
	_, err = s.Save(newer, false)
	require.NoError(t, err)

	// non-recipe files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(local, "notes.txt"), []byte("x"), 0o600))

	manifests, err := s.List()
	require.NoError(t, err)
	require.Len(t, manifests, 2)
	assert.Equal(t, "Fresh One", manifests[0].Name)
	assert.False(t, manifests[0].IsGlobal)
	assert.Equal(t, "Code Review", manifests[1].Name)
	assert.True(t, manifests[1].IsGlobal)
}

func TestStoreDelete(t *testing.T) {
	s, _, _ := testStore(t)

	m, err := s.Save(validRecipe(), true)
	require.NoError(t, err)

	require.NoError(t, s.Delete(m.ID))
	_, err = os.Stat(m.Path)
	assert.True(t, os.IsNotExist(err))

	err = s.Delete(m.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no recipe with id")
}
