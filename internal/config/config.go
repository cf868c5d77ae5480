package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string `yaml:"port"`

	// Auth
	APIKey string `yaml:"api_key"`

	// Index storage
	IndexBackend string `yaml:"index_backend"`
	IndexDir     string `yaml:"index_dir"`
	SQLitePath   string `yaml:"sqlite_path"`

	// Generation collaborator
	Generator        string `yaml:"generator"`
	GeminiAPIKey     string `yaml:"gemini_api_key"`
	GeminiModel      string `yaml:"gemini_model"`
	GeminiBaseURL    string `yaml:"gemini_base_url"`
	AnthropicAPIKey  string `yaml:"anthropic_api_key"`
	AnthropicModel   string `yaml:"anthropic_model"`
	AnthropicBaseURL string `yaml:"anthropic_base_url"`

	AnswerTimeout  time.Duration `yaml:"answer_timeout"`
	ImageTimeout   time.Duration `yaml:"image_timeout"`
	SummaryTimeout time.Duration `yaml:"summary_timeout"`

	// Retrieval
	ChunkSize         int `yaml:"chunk_size"`
	TopK              int `yaml:"top_k"`
	MaxContextChars   int `yaml:"max_context_chars"`
	SummaryInputChars int `yaml:"summary_input_chars"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// PDF
	PDFFallbackPdftotext bool `yaml:"pdf_fallback_pdftotext"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:                 "8090",
		IndexBackend:         "file",
		IndexDir:             "./indexes",
		SQLitePath:           "./indexes/index.db",
		Generator:            "auto",
		GeminiModel:          "gemini-2.0-flash",
		AnthropicModel:       "claude-sonnet-4-5-20250929",
		AnswerTimeout:        20 * time.Second,
		ImageTimeout:         30 * time.Second,
		SummaryTimeout:       30 * time.Second,
		ChunkSize:            2500,
		TopK:                 3,
		MaxContextChars:      6000,
		SummaryInputChars:    12000,
		MaxUploadBytes:       52428800, // 50MB
		PDFFallbackPdftotext: true,
	}
}

// Load builds the configuration from defaults, the YAML file named by
// DOCQA_CONFIG (if any) and the environment, in that order.
func Load() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv("DOCQA_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	cfg = Config{
		Port: envOr("PORT", cfg.Port),

		APIKey: envOr("DOCQA_API_KEY", cfg.APIKey),

		IndexBackend: envOr("INDEX_BACKEND", cfg.IndexBackend),
		IndexDir:     envOr("INDEX_DIR", cfg.IndexDir),
		SQLitePath:   envOr("SQLITE_PATH", cfg.SQLitePath),

		Generator:        envOr("GENERATOR", cfg.Generator),
		GeminiAPIKey:     envOr("GEMINI_API_KEY", cfg.GeminiAPIKey),
		GeminiModel:      envOr("GEMINI_MODEL", cfg.GeminiModel),
		GeminiBaseURL:    envOr("GEMINI_BASE_URL", cfg.GeminiBaseURL),
		AnthropicAPIKey:  envOr("ANTHROPIC_API_KEY", cfg.AnthropicAPIKey),
		AnthropicModel:   envOr("ANTHROPIC_MODEL", cfg.AnthropicModel),
		AnthropicBaseURL: envOr("ANTHROPIC_BASE_URL", cfg.AnthropicBaseURL),

		AnswerTimeout:  envDuration("ANSWER_TIMEOUT", cfg.AnswerTimeout),
		ImageTimeout:   envDuration("IMAGE_TIMEOUT", cfg.ImageTimeout),
		SummaryTimeout: envDuration("SUMMARY_TIMEOUT", cfg.SummaryTimeout),

		ChunkSize:         envInt("CHUNK_SIZE", cfg.ChunkSize),
		TopK:              envInt("TOP_K", cfg.TopK),
		MaxContextChars:   envInt("MAX_CONTEXT_CHARS", cfg.MaxContextChars),
		SummaryInputChars: envInt("SUMMARY_INPUT_CHARS", cfg.SummaryInputChars),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", cfg.PDFFallbackPdftotext),
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	switch c.IndexBackend {
	case "file":
		if c.IndexDir == "" {
			return fmt.Errorf("INDEX_DIR is required for the file backend")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite backend")
		}
	case "memory":
	default:
		return fmt.Errorf("INDEX_BACKEND must be file, sqlite or memory, got %q", c.IndexBackend)
	}
	switch c.Generator {
	case "auto", "gemini", "anthropic", "none":
	default:
		return fmt.Errorf("GENERATOR must be auto, gemini, anthropic or none, got %q", c.Generator)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive")
	}
	if c.TopK <= 0 {
		return fmt.Errorf("TOP_K must be positive")
	}
	if c.MaxContextChars <= 0 || c.SummaryInputChars <= 0 {
		return fmt.Errorf("MAX_CONTEXT_CHARS and SUMMARY_INPUT_CHARS must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if c.AnswerTimeout <= 0 || c.ImageTimeout <= 0 || c.SummaryTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
