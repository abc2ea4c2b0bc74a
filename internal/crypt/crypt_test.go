package crypt

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKeyring(t *testing.T, ids ...string) string {
	t.Helper()

	dir := t.TempDir()
	for _, id := range ids {
		require.NoError(t, GenerateKeyPair(dir, id))
	}

	return dir
}

func TestSealOpenRoundTrip(t *testing.T) {
	dir := newKeyring(t, "backup@example.com")

	sealer, err := NewSealer(dir, "backup@example.com")
	require.NoError(t, err)

	plaintext := []byte("hello")
	ciphertext, err := sealer.Seal(plaintext)
	require.NoError(t, err)
	assert.NotContains(t, string(ciphertext), "hello")

	priv, err := LoadPrivateKey(filepath.Join(dir, "backup@example.com"))
	require.NoError(t, err)

	got, err := Open(priv, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestSealProducesFreshCiphertext(t *testing.T) {
	dir := newKeyring(t, "backup")

	sealer, err := NewSealer(dir, "backup")
	require.NoError(t, err)

	a, err := sealer.Seal([]byte("same payload"))
	require.NoError(t, err)
	b, err := sealer.Seal([]byte("same payload"))
	require.NoError(t, err)

	assert.False(t, bytes.Equal(a, b), "sealing twice must not reuse key or nonce")
}

func TestOpenRejectsWrongKey(t *testing.T) {
	dir := newKeyring(t, "alice", "bob")

	sealer, err := NewSealer(dir, "alice")
	require.NoError(t, err)

	ciphertext, err := sealer.Seal([]byte("for alice only"))
	require.NoError(t, err)

	bobPriv, err := LoadPrivateKey(filepath.Join(dir, "bob"))
	require.NoError(t, err)

	_, err = Open(bobPriv, ciphertext)
	assert.Error(t, err)
}

func TestOpenRejectsTamperedEnvelope(t *testing.T) {
	dir := newKeyring(t, "alice")

	sealer, err := NewSealer(dir, "alice")
	require.NoError(t, err)

	ciphertext, err := sealer.Seal([]byte("payload"))
	require.NoError(t, err)
	ciphertext[len(ciphertext)-1] ^= 0xff

	priv, err := LoadPrivateKey(filepath.Join(dir, "alice"))
	require.NoError(t, err)

	_, err = Open(priv, ciphertext)
	assert.ErrorIs(t, err, ErrBadEnvelope)
}

func TestResolveKeyExactMatchWins(t *testing.T) {
	dir := newKeyring(t, "backup", "backup-old")

	resolved, err := ResolveKey(dir, "backup")
	require.NoError(t, err)
	assert.Equal(t, "backup", resolved.ID)
}

func TestResolveKeySubstring(t *testing.T) {
	dir := newKeyring(t, "team-backup@example.com")

	resolved, err := ResolveKey(dir, "backup")
	require.NoError(t, err)
	assert.Equal(t, "team-backup@example.com", resolved.ID)
}

func TestResolveKeyNotFound(t *testing.T) {
	dir := newKeyring(t, "alice")

	_, err := ResolveKey(dir, "mallory")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestResolveKeyAmbiguous(t *testing.T) {
	dir := newKeyring(t, "backup-2024", "backup-2025")

	_, err := ResolveKey(dir, "backup")
	assert.ErrorIs(t, err, ErrKeyAmbiguous)
}

func TestNewSealerFailsOnMissingKeyring(t *testing.T) {
	_, err := NewSealer(filepath.Join(t.TempDir(), "nope"), "any")
	assert.Error(t, err)
}

func TestGenerateKeyPairRefusesOverwrite(t *testing.T) {
	dir := newKeyring(t, "alice")
	assert.Error(t, GenerateKeyPair(dir, "alice"))
}

func TestGenerateKeyPairFilePermissions(t *testing.T) {
	dir := newKeyring(t, "alice")

	info, err := os.Stat(filepath.Join(dir, "alice"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
