package credentials

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useTempConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ARCHIVALFLOW_CONFIG_DIR", dir)
	return dir
}

func TestLoadMissingFile(t *testing.T) {
	useTempConfigDir(t)

	rec, err := Load()
	require.NoError(t, err)
	assert.False(t, rec.Present())
	assert.False(t, rec.Verified)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	dir := useTempConfigDir(t)

	require.NoError(t, Save(Record{AccessKey: "ak", SecretKey: "sk", Verified: true}))

	rec, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ak", rec.AccessKey)
	assert.Equal(t, "sk", rec.SecretKey)
	assert.True(t, rec.Verified)
	assert.True(t, rec.Present())

	info, err := os.Stat(filepath.Join(dir, fileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadCorruptFile(t *testing.T) {
	dir := useTempConfigDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, fileName), []byte("{not yaml"), 0o600))

	_, err := Load()
	assert.Error(t, err)
}
