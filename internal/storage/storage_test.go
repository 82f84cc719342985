package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openBackends(t *testing.T) map[string]Storage {
	t.Helper()
	dir := t.TempDir()

	file, err := Open(BackendFile, filepath.Join(dir, "session.json"))
	require.NoError(t, err)
	db, err := Open(BackendSQLite, filepath.Join(dir, "session.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		file.Close()
		db.Close()
	})
	return map[string]Storage{BackendFile: file, BackendSQLite: db}
}

func TestStorageRoundTrip(t *testing.T) {
	for name, s := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Get("token")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Set("token", "tok123"))
			require.NoError(t, s.Set("user", `{"id":1}`))
			require.NoError(t, s.Set("token", "tok456"))

			v, ok, err := s.Get("token")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "tok456", v)

			require.NoError(t, s.Remove("token", "user", "missing"))
			_, ok, err = s.Get("user")
			require.NoError(t, err)
			assert.False(t, ok)

			assert.NoError(t, s.Remove())
		})
	}
}

func TestFileStoragePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	s, err := Open(BackendFile, path)
	require.NoError(t, err)
	require.NoError(t, s.Set("token", "abc"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reopened, err := NewFileStorage(path)
	require.NoError(t, err)
	v, ok, _ := reopened.Get("token")
	assert.True(t, ok)
	assert.Equal(t, "abc", v)
}

func TestFileStorageIgnoresCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	s, err := NewFileStorage(path)
	require.NoError(t, err)
	_, ok, _ := s.Get("token")
	assert.False(t, ok)
}

func TestSQLiteStoragePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")

	s, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("user", `{"id":2}`))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	defer reopened.Close()
	v, ok, err := reopened.Get("user")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"id":2}`, v)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open("redis", filepath.Join(t.TempDir(), "x"))
	assert.Error(t, err)
}
