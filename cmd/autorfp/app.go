package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/autorfp-ai/autorfp/pkg/cache"
	"github.com/autorfp-ai/autorfp/pkg/config"
	"github.com/autorfp-ai/autorfp/pkg/llm"
	"github.com/autorfp-ai/autorfp/pkg/pipeline"
	"github.com/autorfp-ai/autorfp/pkg/prompts"
	"github.com/autorfp-ai/autorfp/pkg/reader"
	"github.com/autorfp-ai/autorfp/pkg/store"
)

// app wires the shared dependencies behind every command: config, store,
// cache, readers, and optionally the generative backend.
type app struct {
	cfg      *config.Config
	db       store.DB
	cache    *cache.Cache
	pipeline *pipeline.Pipeline
	readers  *reader.Registry
	provider llm.Provider
}

// newApp builds the dependency graph. withLLM controls whether the
// generative backend is constructed; cache and export commands work
// offline.
func newApp(ctx context.Context, configPath string, withLLM bool) (*app, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	db, err := openStore(cfg.Store)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		db:      db,
		cache:   cache.New(db),
		readers: newReaders(cfg),
	}

	if withLLM {
		a.provider, err = llm.NewProvider(ctx, cfg.LLM.Provider, resolveAPIKey(cfg), cfg.LLM.URL)
		if err != nil {
			a.Close()
			return nil, err
		}
	}
	a.pipeline = pipeline.New(a.provider, a.cache, prompts.New(cfg.PromptDir), pipeline.Config{
		Model:       cfg.LLM.Model,
		Temperature: cfg.Pipeline.Temperature,
		Candidates:  cfg.Pipeline.Candidates,
		MaxTokens:   cfg.Pipeline.MaxTokens,
		FuzzyCutoff: cfg.Pipeline.FuzzyCutoff,
		TTL:         cfg.Cache.TTL,
	})
	return a, nil
}

func (a *app) Close() {
	if a.provider != nil {
		_ = a.provider.Close()
	}
	_ = a.db.Close()
}

// loadConfig reads the config file, falling back to defaults when the
// default path does not exist.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.Default(), nil
	}
	return config.Load(path)
}

func openStore(cfg config.StoreConfig) (store.DB, error) {
	switch cfg.Backend {
	case "sqlite", "":
		return store.NewSQLiteDB(cfg.Path)
	case "file":
		return store.NewFileDB(cfg.Path)
	case "memory":
		return store.NewMemoryDB(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func newReaders(cfg *config.Config) *reader.Registry {
	readers := reader.NewRegistry()
	for ext, cmdline := range cfg.Converters {
		parts := strings.Fields(cmdline)
		if len(parts) == 0 {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		readers.Register(ext, reader.Command(parts[0], parts[1:]...))
	}
	return readers
}

func resolveAPIKey(cfg *config.Config) string {
	if cfg.LLM.APIKey != "" {
		return cfg.LLM.APIKey
	}
	if strings.EqualFold(cfg.LLM.Provider, "gemini") {
		return os.Getenv("GEMINI_API_KEY")
	}
	return os.Getenv("OPENAI_API_KEY")
}
