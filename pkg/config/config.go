package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all autorfp configuration.
type Config struct {
	Listen     string            `yaml:"listen"`
	Store      StoreConfig       `yaml:"store"`
	Cache      CacheConfig       `yaml:"cache"`
	LLM        LLMConfig         `yaml:"llm"`
	Pipeline   PipelineConfig    `yaml:"pipeline"`
	PromptDir  string            `yaml:"prompt_dir"`
	Converters map[string]string `yaml:"converters"`
}

// StoreConfig selects the document store backend.
// Backend is "sqlite" (default), "file", or "memory".
type StoreConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// CacheConfig controls the generation cache.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// LLMConfig defines the generative backend.
// Provider is "openai" (default, covers any compatible endpoint via url)
// or "gemini".
type LLMConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	URL      string `yaml:"url"`
}

// PipelineConfig tunes candidate generation and ranking.
type PipelineConfig struct {
	Candidates  int     `yaml:"candidates"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	FuzzyCutoff float64 `yaml:"fuzzy_cutoff"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen: ":8080",
		Store: StoreConfig{
			Backend: "sqlite",
			Path:    "autorfp.db",
		},
		Cache: CacheConfig{
			TTL: 90 * 24 * time.Hour,
		},
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o",
		},
		Pipeline: PipelineConfig{
			Candidates:  3,
			Temperature: 0.2,
			FuzzyCutoff: 70,
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}
