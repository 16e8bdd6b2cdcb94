// Package config loads recipechat settings from defaults, an optional YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every configuration key looked up in the environment,
// e.g. RECIPECHAT_SERVER_ADDR for server.addr.
const EnvPrefix = "RECIPECHAT"

// Supported completion providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
	ProviderGemini    = "gemini"
	ProviderNoOps     = "noops"
)

// Supported conversation store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config is the complete runtime configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	LLM    LLMConfig    `mapstructure:"llm"`
	Store  StoreConfig  `mapstructure:"store"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	StaticDir       string        `mapstructure:"static_dir"`
	CookieName      string        `mapstructure:"cookie_name"`
	CookieMaxAge    time.Duration `mapstructure:"cookie_max_age"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// RateLimit is the sustained number of chat turns per second; zero disables limiting.
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

type LLMConfig struct {
	Provider         string        `mapstructure:"provider"`
	Model            string        `mapstructure:"model"`
	APIKey           string        `mapstructure:"api_key"`
	BaseURL          string        `mapstructure:"base_url"`
	Region           string        `mapstructure:"region"`
	MaxToken         int64         `mapstructure:"max_token"`
	Temperature      float64       `mapstructure:"temperature"`
	TopP             float64       `mapstructure:"top_p"`
	TopK             int64         `mapstructure:"top_k"`
	Timeout          time.Duration `mapstructure:"timeout"`
	SystemPrompt     string        `mapstructure:"system_prompt"`
	SystemPromptFile string        `mapstructure:"system_prompt_file"`
	Tracing          bool          `mapstructure:"tracing"`
}

type StoreConfig struct {
	Driver    string        `mapstructure:"driver"`
	DSN       string        `mapstructure:"dsn"`
	RedisURL  string        `mapstructure:"redis_url"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
}

type LogConfig struct {
	Backend string `mapstructure:"backend"`
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
}

// defaultModels is used when llm.model is not set.
var defaultModels = map[string]string{
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderAnthropic: "claude-3-5-sonnet-20240620",
	ProviderBedrock:   "anthropic.claude-3-5-sonnet-20240620-v1:0",
	ProviderGemini:    "gemini-1.5-flash",
}

// legacyAPIKeyEnv maps providers to the conventional vendor API key variables.
var legacyAPIKeyEnv = map[string]string{
	ProviderOpenAI:    "OPENAI_API_KEY",
	ProviderAnthropic: "ANTHROPIC_API_KEY",
	ProviderGemini:    "GEMINI_API_KEY",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.static_dir", "frontend")
	v.SetDefault("server.cookie_name", "user_id")
	v.SetDefault("server.cookie_max_age", time.Duration(0))
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 2*time.Minute)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.rate_limit", 5.0)
	v.SetDefault("server.rate_burst", 10)

	v.SetDefault("llm.provider", ProviderOpenAI)
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.region", "")
	v.SetDefault("llm.max_token", 1000)
	v.SetDefault("llm.temperature", 0.5)
	v.SetDefault("llm.top_p", 0.5)
	v.SetDefault("llm.top_k", 40)
	v.SetDefault("llm.timeout", time.Minute)
	v.SetDefault("llm.system_prompt", "")
	v.SetDefault("llm.system_prompt_file", "")
	v.SetDefault("llm.tracing", false)

	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("store.dsn", "conversations.db")
	v.SetDefault("store.redis_url", "redis://localhost:6379/0")
	v.SetDefault("store.key_prefix", "recipechat:")
	v.SetDefault("store.ttl", time.Duration(0))

	v.SetDefault("log.backend", "zap")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load reads the configuration. An empty path skips the file; a non-empty path must exist.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("llm.model", EnvPrefix+"_LLM_MODEL", "MODEL_NAME"); err != nil {
		return Config{}, fmt.Errorf("failed to bind llm.model: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))

	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaultModels[cfg.LLM.Provider]
	}
	if cfg.LLM.APIKey == "" {
		if env, ok := legacyAPIKeyEnv[cfg.LLM.Provider]; ok {
			cfg.LLM.APIKey = os.Getenv(env)
		}
	}

	return cfg, nil
}

// Validate reports every problem found in the configuration.
func (c Config) Validate() error {
	var errs []error

	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
		if c.LLM.APIKey == "" {
			errs = append(errs, fmt.Errorf("llm.api_key is required for provider %q (or set %s)", c.LLM.Provider, legacyAPIKeyEnv[c.LLM.Provider]))
		}
	case ProviderBedrock, ProviderNoOps:
	default:
		errs = append(errs, fmt.Errorf("unknown llm.provider %q", c.LLM.Provider))
	}

	switch c.Store.Driver {
	case DriverMemory, DriverRedis:
	case DriverSQLite, DriverPostgres:
		if c.Store.DSN == "" {
			errs = append(errs, fmt.Errorf("store.dsn is required for driver %q", c.Store.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}

	if c.Store.Driver == DriverRedis && c.Store.RedisURL == "" {
		errs = append(errs, errors.New("store.redis_url is required for driver \"redis\""))
	}

	if c.LLM.SystemPrompt != "" {
		if err := ValidateSystemPrompt(c.LLM.SystemPrompt); err != nil {
			errs = append(errs, fmt.Errorf("llm.system_prompt: %w", err))
		}
	}

	if c.Server.RateLimit < 0 || c.Server.RateBurst < 0 {
		errs = append(errs, errors.New("server.rate_limit and server.rate_burst must not be negative"))
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst == 0 {
		errs = append(errs, errors.New("server.rate_burst must be positive when rate limiting is enabled"))
	}

	return errors.Join(errs...)
}

// ResolveSystemPrompt returns the prompt from system_prompt_file, then system_prompt, then
// fallback.
func (c LLMConfig) ResolveSystemPrompt(fallback string) (string, error) {
	if c.SystemPromptFile != "" {
		return LoadSystemPrompt(c.SystemPromptFile)
	}
	if strings.TrimSpace(c.SystemPrompt) != "" {
		return c.SystemPrompt, nil
	}
	return fallback, nil
}
