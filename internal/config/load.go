// Package config loads and persists archivalflow settings. Values layer as
// defaults, then the YAML config file, then ARCHIVALFLOW_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	configDirName  = ".archivalflow"
	configFileName = "config"
	envPrefix      = "ARCHIVALFLOW"
)

// Dir returns the directory holding the config file and credential store.
func Dir() (string, error) {
	if override := strings.TrimSpace(os.Getenv(envPrefix + "_CONFIG_DIR")); override != "" {
		return override, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, configDirName), nil
}

// Load reads configuration from defaults, the config file, and environment.
// A missing config file is not an error.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigName(configFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Save persists the given key/value pair into the config file, creating the
// file and directory when absent.
func Save(key, value string) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	path := filepath.Join(dir, configFileName+".yaml")

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.Set(key, value)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SettableKeys lists the config file keys the CLI can set.
func SettableKeys() []string {
	return []string{
		"upload_base_url",
		"metadata_base_url",
		"public_base_url",
		"collection",
		"media_type",
		"derived_format",
		"poll_interval_seconds",
		"llm_base_url",
		"llm_model",
		"llm_api_key",
	}
}

// IsSettableKey reports whether key may be written via `config set`.
func IsSettableKey(key string) bool {
	for _, k := range SettableKeys() {
		if k == key {
			return true
		}
	}
	return false
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("upload_base_url", DefaultUploadBaseURL)
	v.SetDefault("metadata_base_url", DefaultMetadataBaseURL)
	v.SetDefault("public_base_url", DefaultPublicBaseURL)
	v.SetDefault("collection", DefaultCollection)
	v.SetDefault("media_type", DefaultMediaType)
	v.SetDefault("derived_format", DefaultDerivedFormat)
	v.SetDefault("poll_interval_seconds", int(DefaultPollInterval.Seconds()))
	v.SetDefault("llm_base_url", DefaultLLMBaseURL)
	v.SetDefault("llm_model", DefaultLLMModel)
	v.SetDefault("llm_api_key", "")
	v.SetDefault("verbose", false)
}
