package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance, searching the standard locations
func New() (*Config, error) {
	return Load("")
}

// Load creates a configuration instance. When path is empty the standard
// search locations are used and a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/ghl-ops/")
		v.AddConfigPath("$HOME/.ghl-ops")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("GHL_OPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults and environment
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// GoHighLevel API defaults
	v.SetDefault("ghl.base_url", "https://services.leadconnectorhq.com")
	v.SetDefault("ghl.api_version", "2021-07-28")
	v.SetDefault("ghl.api_key", "")
	v.SetDefault("ghl.location_id", "")
	v.SetDefault("ghl.timeout", "30s")
	v.SetDefault("ghl.rate_limit", 10.0)
	v.SetDefault("ghl.rate_burst", 10)
	v.SetDefault("ghl.retry_count", 3)
	v.SetDefault("ghl.retry_wait", "1s")
	v.SetDefault("ghl.retry_max_wait", "20s")

	// Sync defaults
	v.SetDefault("sync.workers", 1)
	v.SetDefault("sync.default_tags", []string{})
	v.SetDefault("sync.suppressed_domains", []string{})
	v.SetDefault("sync.suppressed_local_parts", []string{"noreply", "no-reply", "donotreply", "do-not-reply", "mailer-daemon", "postmaster", "bounce", "notifications"})
	v.SetDefault("sync.self_addresses", []string{})

	// Cross-reference defaults
	v.SetDefault("crossref.threshold", 0.88)

	// Mbox defaults
	v.SetDefault("mbox.max_message_bytes", 25*1024*1024)

	// Classifier defaults
	v.SetDefault("classify.enabled", false)
	v.SetDefault("classify.provider", "none")
	v.SetDefault("classify.threshold", 0.5)

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-v2")
	v.SetDefault("bedrock.max_tokens", 1000)
	v.SetDefault("bedrock.temperature", 0.1)
	v.SetDefault("bedrock.top_p", 0.9)
	v.SetDefault("bedrock.max_body_size", 4096)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-pro")
	v.SetDefault("gemini.max_tokens", 1000)
	v.SetDefault("gemini.temperature", 0.1)
	v.SetDefault("gemini.top_p", 0.9)
	v.SetDefault("gemini.max_body_size", 4096)

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model_name", "gpt-4")
	v.SetDefault("openai.max_tokens", 1000)
	v.SetDefault("openai.temperature", 0.1)
	v.SetDefault("openai.top_p", 0.9)
	v.SetDefault("openai.max_body_size", 4096)

	// Ledger defaults
	v.SetDefault("ledger.type", "sqlite")
	v.SetDefault("ledger.ttl", "2160h")
	v.SetDefault("ledger.cleanup_frequency", "1h")
	v.SetDefault("ledger.sqlite_path", "./data/ledger.db")
	v.SetDefault("ledger.mysql_dsn", "user:password@tcp(localhost:3306)/ghl_ops")

	// Intake server defaults
	v.SetDefault("intake.listen_address", "0.0.0.0:10026")
	v.SetDefault("intake.domain", "localhost")
	v.SetDefault("intake.max_message_bytes", 10*1024*1024)
	v.SetDefault("intake.max_recipients", 50)
	v.SetDefault("intake.read_timeout", "30s")
	v.SetDefault("intake.write_timeout", "30s")
	v.SetDefault("intake.allowed_recipients", []string{})
	v.SetDefault("intake.tags", []string{"email-lead"})
	v.SetDefault("intake.workflow_id", "")
	v.SetDefault("intake.sync_timeout", "60s")

	// Notification defaults
	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.smtp_address", "localhost:587")
	v.SetDefault("notify.starttls", true)
	v.SetDefault("notify.username", "")
	v.SetDefault("notify.password", "")
	v.SetDefault("notify.from", "")
	v.SetDefault("notify.to", []string{})
	v.SetDefault("notify.subject_prefix", "[ghl-ops]")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	d, err := time.ParseDuration(c.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}

// Set overrides a configuration value
func (c *Config) Set(key string, value any) {
	c.v.Set(key, value)
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
