package config

import "time"

// GHLConfig represents the configuration for the GoHighLevel API client
type GHLConfig struct {
	BaseURL      string
	APIVersion   string
	APIKey       string
	LocationID   string
	Timeout      time.Duration
	RateLimit    float64
	RateBurst    int
	RetryCount   int
	RetryWait    time.Duration
	RetryMaxWait time.Duration
}

// SyncConfig represents the configuration for contact synchronisation
type SyncConfig struct {
	Workers              int
	DefaultTags          []string
	SuppressedDomains    []string
	SuppressedLocalParts []string
	SelfAddresses        []string
}

// ClassifyConfig represents the configuration for lead classification
type ClassifyConfig struct {
	Enabled   bool
	Provider  string
	Threshold float64
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// LedgerConfig represents the configuration for the sync ledger
type LedgerConfig struct {
	Type             string
	TTL              time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
}

// IntakeConfig represents the configuration for the SMTP lead intake server
type IntakeConfig struct {
	ListenAddress     string
	Domain            string
	MaxMessageBytes   int64
	MaxRecipients     int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	AllowedRecipients []string
	Tags              []string
	WorkflowID        string
	SyncTimeout       time.Duration
}

// NotifyConfig represents the configuration for report notifications
type NotifyConfig struct {
	Enabled       bool
	SMTPAddress   string
	StartTLS      bool
	Username      string
	Password      string
	From          string
	To            []string
	SubjectPrefix string
}

// GetGHL returns the GoHighLevel configuration
func (c *Config) GetGHL() GHLConfig {
	return GHLConfig{
		BaseURL:      c.GetString("ghl.base_url"),
		APIVersion:   c.GetString("ghl.api_version"),
		APIKey:       c.GetString("ghl.api_key"),
		LocationID:   c.GetString("ghl.location_id"),
		Timeout:      c.v.GetDuration("ghl.timeout"),
		RateLimit:    c.GetFloat64("ghl.rate_limit"),
		RateBurst:    c.GetInt("ghl.rate_burst"),
		RetryCount:   c.GetInt("ghl.retry_count"),
		RetryWait:    c.v.GetDuration("ghl.retry_wait"),
		RetryMaxWait: c.v.GetDuration("ghl.retry_max_wait"),
	}
}

// GetSync returns the sync configuration
func (c *Config) GetSync() SyncConfig {
	return SyncConfig{
		Workers:              c.GetInt("sync.workers"),
		DefaultTags:          c.GetStringSlice("sync.default_tags"),
		SuppressedDomains:    c.GetStringSlice("sync.suppressed_domains"),
		SuppressedLocalParts: c.GetStringSlice("sync.suppressed_local_parts"),
		SelfAddresses:        c.GetStringSlice("sync.self_addresses"),
	}
}

// GetClassify returns the classifier configuration
func (c *Config) GetClassify() ClassifyConfig {
	return ClassifyConfig{
		Enabled:   c.GetBool("classify.enabled"),
		Provider:  c.GetString("classify.provider"),
		Threshold: c.GetFloat64("classify.threshold"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		BaseURL:     c.GetString("openai.base_url"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}

// GetLedger returns the ledger configuration
func (c *Config) GetLedger() LedgerConfig {
	return LedgerConfig{
		Type:             c.GetString("ledger.type"),
		TTL:              c.v.GetDuration("ledger.ttl"),
		CleanupFrequency: c.v.GetDuration("ledger.cleanup_frequency"),
		SQLitePath:       c.GetString("ledger.sqlite_path"),
		MySQLDSN:         c.GetString("ledger.mysql_dsn"),
	}
}

// GetIntake returns the intake server configuration
func (c *Config) GetIntake() IntakeConfig {
	return IntakeConfig{
		ListenAddress:     c.GetString("intake.listen_address"),
		Domain:            c.GetString("intake.domain"),
		MaxMessageBytes:   c.v.GetInt64("intake.max_message_bytes"),
		MaxRecipients:     c.GetInt("intake.max_recipients"),
		ReadTimeout:       c.v.GetDuration("intake.read_timeout"),
		WriteTimeout:      c.v.GetDuration("intake.write_timeout"),
		AllowedRecipients: c.GetStringSlice("intake.allowed_recipients"),
		Tags:              c.GetStringSlice("intake.tags"),
		WorkflowID:        c.GetString("intake.workflow_id"),
		SyncTimeout:       c.v.GetDuration("intake.sync_timeout"),
	}
}

// GetNotify returns the notification configuration
func (c *Config) GetNotify() NotifyConfig {
	return NotifyConfig{
		Enabled:       c.GetBool("notify.enabled"),
		SMTPAddress:   c.GetString("notify.smtp_address"),
		StartTLS:      c.GetBool("notify.starttls"),
		Username:      c.GetString("notify.username"),
		Password:      c.GetString("notify.password"),
		From:          c.GetString("notify.from"),
		To:            c.GetStringSlice("notify.to"),
		SubjectPrefix: c.GetString("notify.subject_prefix"),
	}
}
