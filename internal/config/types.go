package config

import "time"

const (
	DefaultUploadBaseURL   = "https://s3.us.archive.org"
	DefaultMetadataBaseURL = "https://archive.org/metadata"
	DefaultPublicBaseURL   = "https://archive.org"

	// Collection and media classification sent with every upload.
	DefaultCollection = "opensource_audio"
	DefaultMediaType  = "audio"

	// Derived file format whose presence marks post-processing as finished.
	// This keys on archive.org behavior for audio items; a service-side
	// change to derive output is a config edit, not a code change.
	DefaultDerivedFormat = "Spectrogram"

	DefaultPollInterval  = 5 * time.Second
	DefaultUploadTimeout = 30 * time.Minute
	DefaultProbeTimeout  = 15 * time.Second

	DefaultLLMBaseURL = "https://api.openai.com/v1"
	DefaultLLMModel   = "gpt-4o-mini"
)

// Config captures user-configurable settings shared across commands.
type Config struct {
	UploadBaseURL   string `mapstructure:"upload_base_url" yaml:"upload_base_url"`
	MetadataBaseURL string `mapstructure:"metadata_base_url" yaml:"metadata_base_url"`
	PublicBaseURL   string `mapstructure:"public_base_url" yaml:"public_base_url"`

	Collection    string `mapstructure:"collection" yaml:"collection"`
	MediaType     string `mapstructure:"media_type" yaml:"media_type"`
	DerivedFormat string `mapstructure:"derived_format" yaml:"derived_format"`

	PollIntervalSeconds int `mapstructure:"poll_interval_seconds" yaml:"poll_interval_seconds"`

	LLMBaseURL string `mapstructure:"llm_base_url" yaml:"llm_base_url"`
	LLMModel   string `mapstructure:"llm_model" yaml:"llm_model"`
	LLMAPIKey  string `mapstructure:"llm_api_key" yaml:"llm_api_key"`

	Verbose bool `mapstructure:"verbose" yaml:"verbose"`
}

// PollInterval returns the configured poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	if c.PollIntervalSeconds <= 0 {
		return DefaultPollInterval
	}
	return time.Duration(c.PollIntervalSeconds) * time.Second
}
