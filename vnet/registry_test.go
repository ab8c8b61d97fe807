package vnet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(filepath.Join(t.TempDir(), "testnet-ids.json"))
}

func TestRegistry_MissingFileIsEmpty(t *testing.T) {
	r := tempRegistry(t)

	ids, err := r.Load()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRegistry_AppendAndLoad(t *testing.T) {
	r := tempRegistry(t)

	require.NoError(t, r.Append("vnet-1"))
	require.NoError(t, r.Append("vnet-2"))

	ids, err := r.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"vnet-1", "vnet-2"}, ids)
}

func TestRegistry_FileIsJSONArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.json")
	r := NewRegistry(path)
	require.NoError(t, r.Append("vnet-1"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `["vnet-1"]`, string(data))
}

func TestRegistry_Clear(t *testing.T) {
	r := tempRegistry(t)
	require.NoError(t, r.Append("vnet-1"))
	require.NoError(t, r.Clear())

	ids, err := r.Load()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRegistry_RejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, err := NewRegistry(path).Load()
	require.Error(t, err)
}
