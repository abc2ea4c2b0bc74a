package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validLocal(t *testing.T) *Config {
	t.Helper()

	cfg := Default
	cfg.KeyID = "backup"
	cfg.WatchDir = t.TempDir()
	cfg.DestDir = t.TempDir()

	return &cfg
}

func TestValidateLocalMode(t *testing.T) {
	assert.NoError(t, validLocal(t).Validate())
}

func TestValidateRequiresKeyID(t *testing.T) {
	cfg := validLocal(t)
	cfg.KeyID = ""

	assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
}

func TestValidateRequiresWatchDir(t *testing.T) {
	cfg := validLocal(t)
	cfg.WatchDir = ""

	assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
}

func TestValidateRejectsMissingWatchDir(t *testing.T) {
	cfg := validLocal(t)
	cfg.WatchDir = filepath.Join(t.TempDir(), "nope")

	assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
}

func TestValidateRejectsBothCloudProviders(t *testing.T) {
	cfg := validLocal(t)
	cfg.GDrive.Enabled = true
	cfg.Dropbox.Enabled = true
	cfg.Dropbox.AccessToken = "tok"

	assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
}

func TestValidateRequiresDestDirInLocalMode(t *testing.T) {
	cfg := validLocal(t)
	cfg.DestDir = ""

	assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
}

func TestValidateCloudModeSkipsDestDir(t *testing.T) {
	cfg := validLocal(t)
	cfg.DestDir = ""
	cfg.Dropbox.Enabled = true
	cfg.Dropbox.AccessToken = "tok"

	assert.NoError(t, cfg.Validate())
}

func TestValidateGDriveRequiresCredentials(t *testing.T) {
	cfg := validLocal(t)
	cfg.GDrive.Enabled = true
	cfg.GDrive.Credentials = filepath.Join(t.TempDir(), "missing.json")

	assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
}

func TestValidateGDriveWithCredentialsFile(t *testing.T) {
	cfg := validLocal(t)
	credFile := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(credFile, []byte("{}"), 0600))
	cfg.GDrive.Enabled = true
	cfg.GDrive.Credentials = credFile

	assert.NoError(t, cfg.Validate())
}

func TestCloudEnabled(t *testing.T) {
	cfg := validLocal(t)
	assert.False(t, cfg.CloudEnabled())

	cfg.GDrive.Enabled = true
	assert.True(t, cfg.CloudEnabled())
}

func TestNormalizeExtensions(t *testing.T) {
	got := normalizeExtensions([]string{"txt", ".PDF", " .Log ", ""})

	assert.Equal(t, []string{".txt", ".pdf", ".log"}, got)
}
