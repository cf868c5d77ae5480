package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var configKeys = []string{
	"DOCQA_CONFIG", "PORT", "DOCQA_API_KEY", "INDEX_BACKEND", "INDEX_DIR", "SQLITE_PATH",
	"GENERATOR", "GEMINI_API_KEY", "GEMINI_MODEL", "GEMINI_BASE_URL", "ANTHROPIC_API_KEY",
	"ANTHROPIC_MODEL", "ANTHROPIC_BASE_URL", "ANSWER_TIMEOUT", "IMAGE_TIMEOUT", "SUMMARY_TIMEOUT",
	"CHUNK_SIZE", "TOP_K", "MAX_CONTEXT_CHARS", "SUMMARY_INPUT_CHARS", "MAX_UPLOAD_BYTES",
	"PDF_FALLBACK_PDFTOTEXT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Defaults() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "docqa.yaml")
	yamlDoc := "port: \"9000\"\nindex_backend: sqlite\ntop_k: 5\nanswer_timeout: 5s\npdf_fallback_pdftotext: false\n"
	if err := os.WriteFile(path, []byte(yamlDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DOCQA_CONFIG", path)
	t.Setenv("TOP_K", "7")
	t.Setenv("CHUNK_SIZE", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9000" {
		t.Errorf("expected yaml port 9000, got %s", cfg.Port)
	}
	if cfg.IndexBackend != "sqlite" {
		t.Errorf("expected yaml backend sqlite, got %s", cfg.IndexBackend)
	}
	if cfg.TopK != 7 {
		t.Errorf("expected env to override top_k, got %d", cfg.TopK)
	}
	if cfg.AnswerTimeout != 5*time.Second {
		t.Errorf("expected yaml answer timeout 5s, got %v", cfg.AnswerTimeout)
	}
	if cfg.PDFFallbackPdftotext {
		t.Error("expected yaml to disable pdftotext fallback")
	}
	if cfg.ChunkSize != 2500 {
		t.Errorf("expected invalid env value to fall back, got %d", cfg.ChunkSize)
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("DOCQA_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"unknown backend", func(c *Config) { c.IndexBackend = "redis" }, true},
		{"memory backend", func(c *Config) { c.IndexBackend = "memory"; c.IndexDir = "" }, false},
		{"sqlite without path", func(c *Config) { c.IndexBackend = "sqlite"; c.SQLitePath = "" }, true},
		{"unknown generator", func(c *Config) { c.Generator = "openai" }, true},
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }, true},
		{"zero top k", func(c *Config) { c.TopK = 0 }, true},
		{"negative upload", func(c *Config) { c.MaxUploadBytes = -1 }, true},
		{"zero timeout", func(c *Config) { c.ImageTimeout = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err=%v, wantErr=%v", err, tt.wantErr)
			}
		})
	}
}
