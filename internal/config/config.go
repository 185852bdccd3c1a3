// Package config holds the model and scene settings shared by the CLI, the
// web form and the watcher.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mgpai22/scenesage/internal/llm"
	"github.com/mgpai22/scenesage/internal/validate"
)

// ErrInvalid is matched by every configuration error.
var ErrInvalid = validate.ErrInvalid

// ValidationError names the offending setting.
type ValidationError = validate.Error

func Invalid(field string, value any, reason string) error {
	return validate.Invalid(field, value, reason)
}

type Config struct {
	Model   ModelConfig   `yaml:"model" toml:"model"`
	Scenes  SceneConfig   `yaml:"scenes" toml:"scenes"`
	APIKeys APIKeys       `yaml:"api_keys" toml:"api_keys"`
	Server  ServerConfig  `yaml:"server" toml:"server"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

type ModelConfig struct {
	Name              string  `yaml:"name" toml:"name"`
	Temperature       float64 `yaml:"temperature" toml:"temperature"`
	MaxTokens         int     `yaml:"max_tokens" toml:"max_tokens"`
	TopP              float64 `yaml:"top_p" toml:"top_p"`
	FrequencyPenalty  float64 `yaml:"frequency_penalty" toml:"frequency_penalty"`
	PresencePenalty   float64 `yaml:"presence_penalty" toml:"presence_penalty"`
	RequestsPerSecond float64 `yaml:"requests_per_second" toml:"requests_per_second"`
	Burst             int     `yaml:"burst" toml:"burst"`
	TimeoutSeconds    int     `yaml:"timeout_seconds" toml:"timeout_seconds"`
}

type SceneConfig struct {
	// seconds of silence that start a new scene
	MinPause  int `yaml:"min_pause" toml:"min_pause"`
	ChunkSize int `yaml:"chunk_size" toml:"chunk_size"`
	Overlap   int `yaml:"overlap" toml:"overlap"`
	// concurrent model calls per chunk; 0 means one per scene
	Concurrency int `yaml:"concurrency" toml:"concurrency"`
}

type APIKeys struct {
	OpenAI    string `yaml:"openai" toml:"openai"`
	Gemini    string `yaml:"gemini" toml:"gemini"`
	Anthropic string `yaml:"anthropic" toml:"anthropic"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr" toml:"addr"`
	MaxUploadMB int    `yaml:"max_upload_mb" toml:"max_upload_mb"`
}

type LoggingConfig struct {
	Verbose bool `yaml:"verbose" toml:"verbose"`
}

func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Name:           "gpt-3.5-turbo",
			Temperature:    0.7,
			MaxTokens:      1000,
			TopP:           0.95,
			Burst:          1,
			TimeoutSeconds: int(llm.DefaultTimeout / time.Second),
		},
		Scenes: SceneConfig{
			MinPause:  4,
			ChunkSize: 5,
			Overlap:   2,
		},
		Server: ServerConfig{
			Addr:        ":8080",
			MaxUploadMB: 32,
		},
	}
}

// Load builds the effective configuration: defaults, then the optional file
// at path, then the environment (a .env file in the working directory is
// read first when present).
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		cfg, err = LoadFile(path)
		if err != nil {
			return nil, err
		}
	}

	// .env is optional
	_ = godotenv.Load()

	FromEnv(cfg)
	return cfg, nil
}

// LoadFile overlays a YAML or TOML file onto the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", path)
	}

	return cfg, nil
}

// FromEnv overlays environment variables onto cfg. Unset variables leave the
// current values alone.
func FromEnv(cfg *Config) {
	cfg.APIKeys.OpenAI = getEnv("OPENAI_API_KEY", cfg.APIKeys.OpenAI)
	cfg.APIKeys.Gemini = getEnv("GEMINI_API_KEY", getEnv("GOOGLE_API_KEY", cfg.APIKeys.Gemini))
	cfg.APIKeys.Anthropic = getEnv("ANTHROPIC_API_KEY", cfg.APIKeys.Anthropic)
	cfg.Model.Name = getEnv("SCENESAGE_MODEL", cfg.Model.Name)
	cfg.Server.Addr = getEnv("SCENESAGE_ADDR", cfg.Server.Addr)
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// Validate checks value ranges. It does not look at API keys; see
// ValidateCredentials.
func (c *Config) Validate() error {
	m := c.Model
	if strings.TrimSpace(m.Name) == "" {
		return Invalid("model", m.Name, "must not be empty")
	}
	if m.Temperature < 0 || m.Temperature > 2 {
		return Invalid("temperature", m.Temperature, "must be between 0 and 2")
	}
	if m.MaxTokens <= 0 {
		return Invalid("max_tokens", m.MaxTokens, "must be positive")
	}
	if m.TopP < 0 || m.TopP > 1 {
		return Invalid("top_p", m.TopP, "must be between 0 and 1")
	}
	if m.FrequencyPenalty < -2 || m.FrequencyPenalty > 2 {
		return Invalid("frequency_penalty", m.FrequencyPenalty, "must be between -2 and 2")
	}
	if m.PresencePenalty < -2 || m.PresencePenalty > 2 {
		return Invalid("presence_penalty", m.PresencePenalty, "must be between -2 and 2")
	}
	if m.RequestsPerSecond < 0 {
		return Invalid("requests_per_second", m.RequestsPerSecond, "must not be negative")
	}
	if m.TimeoutSeconds < 0 {
		return Invalid("timeout_seconds", m.TimeoutSeconds, "must not be negative")
	}

	s := c.Scenes
	if s.MinPause < 0 {
		return Invalid("min_pause", s.MinPause, "must not be negative")
	}
	if err := ValidateChunking(s.ChunkSize, s.Overlap); err != nil {
		return err
	}
	if s.Concurrency < 0 {
		return Invalid("concurrency", s.Concurrency, "must not be negative")
	}

	if c.Server.MaxUploadMB <= 0 {
		return Invalid("max_upload_mb", c.Server.MaxUploadMB, "must be positive")
	}

	return nil
}

// ValidateChunking enforces chunk_size >= 2 and 0 <= overlap < chunk_size,
// which keeps the chunk step positive.
func ValidateChunking(chunkSize, overlap int) error {
	if chunkSize < 2 {
		return Invalid("chunk_size", chunkSize, "must be at least 2")
	}
	if overlap < 0 {
		return Invalid("overlap", overlap, "must not be negative")
	}
	if overlap >= chunkSize {
		return Invalid("overlap", overlap, fmt.Sprintf("must be less than chunk_size (%d)", chunkSize))
	}
	return nil
}

// ValidateCredentials reports a missing API key for the selected model.
func (c *Config) ValidateCredentials() error {
	provider := c.Provider()
	if c.APIKey(provider) == "" {
		return Invalid("api_key", provider, "no API key configured for "+string(provider))
	}
	return nil
}

func (c *Config) Provider() llm.Provider {
	return llm.ProviderForModel(c.Model.Name)
}

func (c *Config) APIKey(provider llm.Provider) string {
	switch provider {
	case llm.ProviderGemini:
		return c.APIKeys.Gemini
	case llm.ProviderAnthropic:
		return c.APIKeys.Anthropic
	default:
		return c.APIKeys.OpenAI
	}
}

// SetAPIKey stores key for the provider of the selected model.
func (c *Config) SetAPIKey(key string) {
	switch c.Provider() {
	case llm.ProviderGemini:
		c.APIKeys.Gemini = key
	case llm.ProviderAnthropic:
		c.APIKeys.Anthropic = key
	default:
		c.APIKeys.OpenAI = key
	}
}

func (c *Config) MinPauseDuration() time.Duration {
	return time.Duration(c.Scenes.MinPause) * time.Second
}

func (c *Config) LLMOptions() llm.Options {
	return llm.Options{
		Model: c.Model.Name,
		Sampling: llm.Sampling{
			Temperature:      c.Model.Temperature,
			MaxTokens:        c.Model.MaxTokens,
			TopP:             c.Model.TopP,
			FrequencyPenalty: c.Model.FrequencyPenalty,
			PresencePenalty:  c.Model.PresencePenalty,
		},
		Timeout: time.Duration(c.Model.TimeoutSeconds) * time.Second,
	}
}

// Clone returns a copy that can be changed per request.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
