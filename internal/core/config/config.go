// Package config handles configuration loading and validation for proofread.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/proofread/internal/core/highlight"
	"github.com/colonyops/proofread/internal/llm"
)

// Config holds the application configuration.
type Config struct {
	Server     ServerConfig   `yaml:"server"`
	Palette    PaletteConfig  `yaml:"palette"`
	Modules    ModulesConfig  `yaml:"modules"`
	LLM        LLMConfig      `yaml:"llm"`
	Cache      CacheConfig    `yaml:"cache"`
	Analysis   AnalysisConfig `yaml:"analysis"`
	SampleText string         `yaml:"sample_text"` // path to the sample document, built-in when empty
	DataDir    string         `yaml:"-"`           // set by caller, not from config file
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// PaletteConfig overrides highlight colors. Unset values keep the built-in
// palette.
type PaletteConfig struct {
	Modules map[string]string `yaml:"modules"`
	Default string            `yaml:"default"`
	Overlap string            `yaml:"overlap"`
}

// Highlight returns the built-in palette with the configured overrides applied.
func (p PaletteConfig) Highlight() highlight.Palette {
	return highlight.DefaultPalette().Merge(highlight.Palette{
		Modules: p.Modules,
		Default: p.Default,
		Overlap: p.Overlap,
	})
}

// ModulesConfig configures the built-in analysis modules.
type ModulesConfig struct {
	Pronouns   PronounsConfig   `yaml:"isolated_pronouns"`
	Transition TransitionConfig `yaml:"transition"`
}

type PronounsConfig struct {
	Enabled bool     `yaml:"enabled"`
	Words   []string `yaml:"words"`
}

type TransitionConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Workers    int    `yaml:"workers"`
	PromptFile string `yaml:"prompt_file"`
}

// LLMConfig selects the LLM service used by the transition module.
type LLMConfig struct {
	Service string        `yaml:"service"` // openai, ollama, gemini or none
	Timeout time.Duration `yaml:"timeout"`
	OpenAI  OpenAIConfig  `yaml:"openai"`
	Ollama  OllamaConfig  `yaml:"ollama"`
	Gemini  GeminiConfig  `yaml:"gemini"`
}

type OpenAIConfig struct {
	APIKeyEnv   string  `yaml:"api_key_env"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

type OllamaConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type GeminiConfig struct {
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
}

// Client returns the llm configuration with API keys read from the
// environment.
func (l LLMConfig) Client() llm.Config {
	return llm.Config{
		Service: l.Service,
		Timeout: l.Timeout,
		OpenAI: llm.OpenAIConfig{
			APIKey:      os.Getenv(l.OpenAI.APIKeyEnv),
			BaseURL:     l.OpenAI.BaseURL,
			Model:       l.OpenAI.Model,
			Temperature: l.OpenAI.Temperature,
		},
		Ollama: llm.OllamaConfig{
			BaseURL: l.Ollama.BaseURL,
			Model:   l.Ollama.Model,
		},
		Gemini: llm.GeminiConfig{
			APIKey: os.Getenv(l.Gemini.APIKeyEnv),
			Model:  l.Gemini.Model,
		},
	}
}

// CacheConfig controls the LLM reply cache.
type CacheConfig struct {
	Enabled       bool          `yaml:"enabled"`
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type AnalysisConfig struct {
	Workers int `yaml:"workers"` // modules run concurrently per request
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		Modules: ModulesConfig{
			Pronouns:   PronounsConfig{Enabled: true},
			Transition: TransitionConfig{Enabled: true, Workers: 4},
		},
		LLM: LLMConfig{
			Service: llm.ServiceNone,
			Timeout: 60 * time.Second,
			OpenAI: OpenAIConfig{
				APIKeyEnv: "OPENAI_API_KEY",
				BaseURL:   "https://api.openai.com/v1",
				Model:     "gpt-4o-mini",
			},
			Ollama: OllamaConfig{
				BaseURL: "http://localhost:11434",
				Model:   "llama3.1",
			},
			Gemini: GeminiConfig{
				APIKeyEnv: "GEMINI_API_KEY",
				Model:     "gemini-2.5-flash",
			},
		},
		Cache: CacheConfig{
			Enabled:       true,
			TTL:           7 * 24 * time.Hour,
			SweepInterval: time.Hour,
		},
		Analysis: AnalysisConfig{Workers: 4},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.DataDir = dataDir
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Server.Host == "" {
		c.Server.Host = defaults.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaults.Server.Port
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = defaults.Server.ShutdownTimeout
	}
	if c.Modules.Transition.Workers == 0 {
		c.Modules.Transition.Workers = defaults.Modules.Transition.Workers
	}
	if c.LLM.Service == "" {
		c.LLM.Service = defaults.LLM.Service
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = defaults.LLM.Timeout
	}
	if c.Cache.SweepInterval == 0 {
		c.Cache.SweepInterval = defaults.Cache.SweepInterval
	}
	if c.Analysis.Workers == 0 {
		c.Analysis.Workers = defaults.Analysis.Workers
	}
}

// Validate checks that the configuration is structurally valid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Analysis.Workers < 1 {
		return fmt.Errorf("analysis.workers must be at least 1")
	}

	if c.Modules.Transition.Workers < 1 {
		return fmt.Errorf("modules.transition.workers must be at least 1")
	}

	switch c.LLM.Service {
	case llm.ServiceNone, llm.ServiceOpenAI, llm.ServiceOllama, llm.ServiceGemini:
	default:
		return fmt.Errorf("llm.service %q is not one of none, openai, ollama, gemini", c.LLM.Service)
	}

	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl cannot be negative")
	}

	if c.Cache.SweepInterval < 0 {
		return fmt.Errorf("cache.sweep_interval cannot be negative")
	}

	return nil
}
