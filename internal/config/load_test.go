package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ARCHIVALFLOW_CONFIG_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultUploadBaseURL, cfg.UploadBaseURL)
	assert.Equal(t, DefaultCollection, cfg.Collection)
	assert.Equal(t, DefaultDerivedFormat, cfg.DerivedFormat)
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval())
	assert.Empty(t, cfg.LLMAPIKey)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ARCHIVALFLOW_CONFIG_DIR", dir)

	contents := "collection: test_collection\npoll_interval_seconds: 12\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(contents), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test_collection", cfg.Collection)
	assert.Equal(t, 12*time.Second, cfg.PollInterval())
	// Untouched keys keep their defaults.
	assert.Equal(t, DefaultMediaType, cfg.MediaType)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ARCHIVALFLOW_CONFIG_DIR", dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("llm_model: from-file\n"), 0o644))
	t.Setenv("ARCHIVALFLOW_LLM_MODEL", "from-env")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.LLMModel)
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("ARCHIVALFLOW_CONFIG_DIR", t.TempDir())

	require.NoError(t, Save("derived_format", "PNG"))
	require.NoError(t, Save("collection", "mixtapes"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "PNG", cfg.DerivedFormat)
	assert.Equal(t, "mixtapes", cfg.Collection)
}

func TestPollIntervalFloor(t *testing.T) {
	cfg := &Config{PollIntervalSeconds: 0}
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval())

	cfg.PollIntervalSeconds = -3
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval())
}

func TestIsSettableKey(t *testing.T) {
	assert.True(t, IsSettableKey("llm_api_key"))
	assert.True(t, IsSettableKey("upload_base_url"))
	assert.False(t, IsSettableKey("verbose_nonsense"))
	assert.False(t, IsSettableKey(""))
}
