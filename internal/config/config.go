// Package config handles configuration loading for QuantBrief.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// PlaceholderAPIKey is the value shipped in the sample .env file. A key that
// still carries it is treated as unconfigured.
const PlaceholderAPIKey = "your_api_key_here"

// Config represents the complete application configuration.
type Config struct {
	Market  MarketConfig  `mapstructure:"market"  yaml:"market"`
	News    NewsConfig    `mapstructure:"news"    yaml:"news"`
	LLM     LLMConfig     `mapstructure:"llm"     yaml:"llm"`
	API     APIConfig     `mapstructure:"api"     yaml:"api"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// MarketConfig holds market data provider settings.
type MarketConfig struct {
	AlphaVantageKey string `mapstructure:"alpha_vantage_key" yaml:"alpha_vantage_key"`
	// Minimum seconds between Alpha Vantage requests. The free tier allows
	// 5 calls/minute, hence the 12s default.
	AlphaVantageIntervalSec int `mapstructure:"alpha_vantage_interval_sec" yaml:"alpha_vantage_interval_sec"`
	// Minimum seconds between Yahoo Finance requests.
	YahooIntervalSec int `mapstructure:"yahoo_interval_sec" yaml:"yahoo_interval_sec"`
}

// UseAlphaVantage reports whether the Alpha Vantage provider should be the
// primary quote source. Absence of a key, or the sample placeholder value,
// selects the keyless fallback provider instead.
func (m MarketConfig) UseAlphaVantage() bool {
	key := strings.TrimSpace(m.AlphaVantageKey)
	return key != "" && key != PlaceholderAPIKey
}

// NewsConfig holds news aggregation settings.
type NewsConfig struct {
	DefaultLimit int `mapstructure:"default_limit" yaml:"default_limit"`
}

// LLMConfig holds Ollama backend configuration.
type LLMConfig struct {
	OllamaURL   string  `mapstructure:"ollama_url"  yaml:"ollama_url"`
	Model       string  `mapstructure:"model"       yaml:"model"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	TopP        float64 `mapstructure:"top_p"       yaml:"top_p"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// Addr returns the host:port listen address.
func (a APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.quantbrief/config.yaml (home directory)
//  3. /etc/quantbrief/config.yaml (system)
//
// Environment variables override config file values.
// Format: QUANTBRIEF_<SECTION>_<KEY>, e.g., QUANTBRIEF_LLM_MODEL.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".quantbrief"))
	v.AddConfigPath("/etc/quantbrief")

	v.SetEnvPrefix("QUANTBRIEF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("QUANTBRIEF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Market defaults
	v.SetDefault("market.alpha_vantage_interval_sec", 12) // 5 calls/min free tier
	v.SetDefault("market.yahoo_interval_sec", 1)

	// News defaults
	v.SetDefault("news.default_limit", 10)

	// LLM defaults
	v.SetDefault("llm.ollama_url", "http://localhost:11434")
	v.SetDefault("llm.model", "llama3.2:1b")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.top_p", 0.9)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8000)
	v.SetDefault("api.cors_origins", []string{"*"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
// ALPHA_VANTAGE_API_KEY is also honored without the QUANTBRIEF_ prefix for
// compatibility with the provider's own documentation.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("QUANTBRIEF_MARKET_ALPHA_VANTAGE_KEY"); key != "" {
		cfg.Market.AlphaVantageKey = key
	}
	if key := os.Getenv("ALPHA_VANTAGE_API_KEY"); key != "" {
		cfg.Market.AlphaVantageKey = key
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
