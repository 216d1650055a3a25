// Package config loads dashweave configuration from YAML with
// defaults and environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all dashweave configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LLM configuration
	LLM LLMConfig `yaml:"llm"`

	// Search collaborator configuration
	Search SearchConfig `yaml:"search"`

	// Template selection configuration
	Selection SelectionConfig `yaml:"selection"`

	// Content filling configuration
	Filling FillingConfig `yaml:"filling"`

	// Orchestration configuration
	Orchestration OrchestrationConfig `yaml:"orchestration"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the model client.
type LLMConfig struct {
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	Timeout     string  `yaml:"timeout"`
}

// SearchConfig configures the web search collaborator.
type SearchConfig struct {
	APIKey    string `yaml:"api_key"`
	WebHost   string `yaml:"web_host"`
	ImageHost string `yaml:"image_host"`
	Timeout   string `yaml:"timeout"`
}

// SelectionWeights distributes the template score across signals.
type SelectionWeights struct {
	KeywordMatch    float64 `yaml:"keyword_match"`
	DomainMatch     float64 `yaml:"domain_match"`
	URLPatternMatch float64 `yaml:"url_pattern_match"`
	TabCountMatch   float64 `yaml:"tab_count_match"`
}

// SelectionConfig configures the template selector.
type SelectionConfig struct {
	TemplatesDir      string           `yaml:"templates_dir"`
	Watch             bool             `yaml:"watch"`
	Weights           SelectionWeights `yaml:"weights"`
	MinScoreThreshold float64          `yaml:"min_score_threshold"`
	DefaultTemplate   string           `yaml:"default_template"`
}

// FillingConfig configures the content filling engine.
type FillingConfig struct {
	// Sentinels is the placeholder sentinel set. Empty means the
	// built-in defaults.
	Sentinels []string `yaml:"sentinels"`
	// MaxPlaceholderRatio fails validation when more than this share
	// of string/null leaves is still unfilled.
	MaxPlaceholderRatio float64 `yaml:"max_placeholder_ratio"`
	// WhitelistPath optionally extends the tool whitelist.
	WhitelistPath string `yaml:"whitelist_path"`
}

// OrchestrationConfig configures the retry loop.
type OrchestrationConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
}

// LoggingConfig configures categorized file logging.
type LoggingConfig struct {
	Dir        string   `yaml:"dir"`
	Debug      bool     `yaml:"debug"`
	Level      string   `yaml:"level"` // debug, info, warn, error
	Categories []string `yaml:"categories"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "dashweave",
		Version: "0.3.0",

		LLM: LLMConfig{
			Model:       "gemini-2.0-flash",
			Temperature: 0.2,
			Timeout:     "60s",
		},

		Search: SearchConfig{
			Timeout: "30s",
		},

		Selection: SelectionConfig{
			TemplatesDir: "templates",
			Watch:        false,
			Weights: SelectionWeights{
				KeywordMatch:    0.4,
				DomainMatch:     0.3,
				URLPatternMatch: 0.2,
				TabCountMatch:   0.1,
			},
			MinScoreThreshold: 0.3,
			DefaultTemplate:   "generic-1",
		},

		Filling: FillingConfig{
			MaxPlaceholderRatio: 0.5,
		},

		Orchestration: OrchestrationConfig{
			MaxAttempts: 3,
		},

		Logging: LoggingConfig{
			Dir:   "logs",
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields
// the defaults; environment overrides always apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if key := os.Getenv("RAPIDAPI_KEY"); key != "" {
		c.Search.APIKey = key
	}
	if model := os.Getenv("DASHWEAVE_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if dir := os.Getenv("DASHWEAVE_TEMPLATES"); dir != "" {
		c.Selection.TemplatesDir = dir
	}
	if dir := os.Getenv("DASHWEAVE_LOG_DIR"); dir != "" {
		c.Logging.Dir = dir
	}
	if os.Getenv("DASHWEAVE_DEBUG") == "1" {
		c.Logging.Debug = true
		c.Logging.Level = "debug"
	}
}

// GetLLMTimeout returns the model call timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// GetSearchTimeout returns the search call timeout as a duration.
func (c *Config) GetSearchTimeout() time.Duration {
	d, err := time.ParseDuration(c.Search.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// MaxAttempts returns the bounded retry ceiling, never below 1.
func (c *Config) MaxAttempts() int {
	if c.Orchestration.MaxAttempts < 1 {
		return 3
	}
	return c.Orchestration.MaxAttempts
}
