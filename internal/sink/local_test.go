package sink

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sealwatch/internal/crypt"
)

func TestLocalStoreWritesPayload(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocal(dir)
	require.NoError(t, err)
	require.NoError(t, s.Connect(context.Background()))

	location, err := s.Store(context.Background(), "report.txt"+crypt.Suffix, []byte("ciphertext"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report.txt"+crypt.Suffix), location)

	data, err := os.ReadFile(location)
	require.NoError(t, err)
	assert.Equal(t, []byte("ciphertext"), data)
}

func TestLocalStoreNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocal(dir)
	require.NoError(t, err)

	name := "report.txt" + crypt.Suffix

	first, err := s.Store(context.Background(), name, []byte("first payload"))
	require.NoError(t, err)
	second, err := s.Store(context.Background(), name, []byte("second payload"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, filepath.Join(dir, "report.txt.1"+crypt.Suffix), second)

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, []byte("first payload"), a)
	assert.Equal(t, []byte("second payload"), b)
}

func TestLocalStoreCollisionCounterAdvances(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocal(dir)
	require.NoError(t, err)

	name := "report.txt" + crypt.Suffix
	for i := 0; i < 3; i++ {
		_, err := s.Store(context.Background(), name, []byte{byte(i)})
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestLocalConnectRejectsMissingDir(t *testing.T) {
	s, err := NewLocal(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)

	assert.Error(t, s.Connect(context.Background()))
}

func TestLocalConnectRejectsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	s, err := NewLocal(path)
	require.NoError(t, err)

	assert.Error(t, s.Connect(context.Background()))
}
