package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Listen != ":8080" {
		t.Errorf("expected :8080, got %s", cfg.Listen)
	}
	if cfg.Store.Backend != "sqlite" {
		t.Errorf("expected sqlite backend, got %s", cfg.Store.Backend)
	}
	if cfg.Cache.TTL != 90*24*time.Hour {
		t.Errorf("expected 90-day TTL, got %v", cfg.Cache.TTL)
	}
	if cfg.Pipeline.Candidates != 3 {
		t.Errorf("expected 3 candidates, got %d", cfg.Pipeline.Candidates)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_API_KEY", "sk-test-123")

	content := `
listen: ":9090"
store:
  backend: file
  path: /tmp/autorfp-data
cache:
  ttl: 720h
llm:
  provider: gemini
  model: gemini-2.0-flash
  api_key: ${TEST_API_KEY}
pipeline:
  candidates: 5
  temperature: 0.1
converters:
  .pdf: "pdftotext -layout"
`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Listen != ":9090" {
		t.Errorf("expected :9090, got %s", cfg.Listen)
	}
	if cfg.Store.Backend != "file" {
		t.Errorf("expected file backend, got %s", cfg.Store.Backend)
	}
	if cfg.LLM.APIKey != "sk-test-123" {
		t.Errorf("env var not expanded: got %s", cfg.LLM.APIKey)
	}
	if cfg.Cache.TTL != 720*time.Hour {
		t.Errorf("expected 720h TTL, got %v", cfg.Cache.TTL)
	}
	if cfg.Pipeline.Candidates != 5 {
		t.Errorf("expected 5 candidates, got %d", cfg.Pipeline.Candidates)
	}
	if cfg.Converters[".pdf"] != "pdftotext -layout" {
		t.Errorf("converters not parsed: %v", cfg.Converters)
	}
}

func TestLoadKeepsDefaultsForOmittedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("listen: \":7070\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":7070" {
		t.Errorf("expected :7070, got %s", cfg.Listen)
	}
	if cfg.LLM.Model != "gpt-4o" {
		t.Errorf("default model lost: %s", cfg.LLM.Model)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for missing file")
	}
}
