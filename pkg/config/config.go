package config

import (
	"fmt"
	"time"
)

// Config is the full analyzer configuration. Values come from defaults,
// then an optional YAML/JSON file, then environment variables with the
// AUTOPROOF_ prefix, in that order.
type Config struct {
	Service  ServiceConfig  `yaml:"service" json:"service"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
	LLM      LLMConfig      `yaml:"llm" json:"llm"`
	Pipeline PipelineConfig `yaml:"pipeline" json:"pipeline"`
	Cache    CacheConfig    `yaml:"cache" json:"cache"`
}

type ServiceConfig struct {
	Name    string `yaml:"name" json:"name"`
	Version string `yaml:"version" json:"version"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// LLMConfig configures the chat-completion client and the tiered analyzer.
type LLMConfig struct {
	APIKey           string        `yaml:"api_key" json:"api_key" env:"API_KEY"`
	BaseURL          string        `yaml:"base_url" json:"base_url" env:"BASE_URL"`
	BulkModel        string        `yaml:"bulk_model" json:"bulk_model" env:"BULK_MODEL"`
	EscalatedModel   string        `yaml:"escalated_model" json:"escalated_model" env:"ESCALATED_MODEL"`
	ReplyTokens      int           `yaml:"reply_tokens" json:"reply_tokens" env:"REPLY_TOKENS"`
	Temperature      float64       `yaml:"temperature" json:"temperature"`
	PromptBudget     int           `yaml:"prompt_budget" json:"prompt_budget" env:"PROMPT_BUDGET"`
	MaxRetries       int           `yaml:"max_retries" json:"max_retries" env:"MAX_RETRIES"`
	RequestTimeout   time.Duration `yaml:"request_timeout" json:"request_timeout" env:"REQUEST_TIMEOUT"`
	ThrottleInterval time.Duration `yaml:"throttle_interval" json:"throttle_interval" env:"THROTTLE_INTERVAL"`
}

// PipelineConfig tunes the detection stages.
type PipelineConfig struct {
	EntityConfidenceThreshold float64       `yaml:"entity_confidence_threshold" json:"entity_confidence_threshold" env:"ENTITY_CONFIDENCE_THRESHOLD"`
	EntityTimeout             time.Duration `yaml:"entity_timeout" json:"entity_timeout" env:"ENTITY_TIMEOUT"`
	MaxContextsPerRegulation  int           `yaml:"max_contexts_per_regulation" json:"max_contexts_per_regulation" env:"MAX_CONTEXTS_PER_REGULATION"`
}

// CacheConfig selects and tunes the result cache backend.
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled" json:"enabled"`
	Backend    string        `yaml:"backend" json:"backend"`
	TTL        time.Duration `yaml:"ttl" json:"ttl"`
	MaxEntries int           `yaml:"max_entries" json:"max_entries" env:"MAX_ENTRIES"`
	Redis      RedisConfig   `yaml:"redis" json:"redis"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr" json:"addr"`
	Password  string `yaml:"password" json:"password"`
	DB        int    `yaml:"db" json:"db"`
	KeyPrefix string `yaml:"key_prefix" json:"key_prefix" env:"KEY_PREFIX"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:    "autoproof",
			Version: "1.0.0",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		LLM: LLMConfig{
			BaseURL:          "https://api.openai.com/v1",
			BulkModel:        "gpt-3.5-turbo",
			EscalatedModel:   "gpt-4o-mini",
			ReplyTokens:      512,
			Temperature:      0.2,
			PromptBudget:     4000,
			MaxRetries:       3,
			RequestTimeout:   60 * time.Second,
			ThrottleInterval: 100 * time.Millisecond,
		},
		Pipeline: PipelineConfig{
			EntityConfidenceThreshold: 0.6,
			EntityTimeout:             10 * time.Second,
			MaxContextsPerRegulation:  3,
		},
		Cache: CacheConfig{
			Enabled:    true,
			Backend:    "memory",
			TTL:        time.Hour,
			MaxEntries: 10000,
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "autoproof",
			},
		},
	}
}

// Validate checks cross-field constraints the loader cannot catch.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid cache backend %q (supported: memory, redis)", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache backend is redis but no redis addr configured")
	}

	if c.LLM.BulkModel == "" || c.LLM.EscalatedModel == "" {
		return fmt.Errorf("both bulk and escalated models must be set")
	}
	if c.LLM.ReplyTokens <= 0 {
		return fmt.Errorf("reply_tokens must be positive, got %d", c.LLM.ReplyTokens)
	}
	if c.LLM.PromptBudget <= 0 {
		return fmt.Errorf("prompt_budget must be positive, got %d", c.LLM.PromptBudget)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("temperature %f out of range [0, 2]", c.LLM.Temperature)
	}

	if c.Pipeline.EntityConfidenceThreshold < 0 || c.Pipeline.EntityConfidenceThreshold > 1 {
		return fmt.Errorf("entity_confidence_threshold %f out of range [0, 1]",
			c.Pipeline.EntityConfidenceThreshold)
	}
	if c.Pipeline.MaxContextsPerRegulation <= 0 {
		return fmt.Errorf("max_contexts_per_regulation must be positive, got %d",
			c.Pipeline.MaxContextsPerRegulation)
	}

	return nil
}
