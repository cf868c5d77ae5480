// Package generate talks to the external text-generation collaborator.
//
// Every call is best-effort: methods return a comma-ok pair and report
// ok == false for missing credentials, timeouts, transport errors and empty
// or malformed replies. A nil *Client is valid and always unavailable.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/docqa/internal/config"
)

// AnswerSource is one passage handed to the collaborator for answering.
type AnswerSource struct {
	Page    int
	Snippet string
}

// AnswerRequest asks for a grounded answer to a question.
type AnswerRequest struct {
	Question      string
	Sources       []AnswerSource
	DocumentLabel string
}

// SummaryRequest asks for a structured summary of a document.
type SummaryRequest struct {
	DocumentLabel string
	Chunks        []string
}

// Generator is the capability the core depends on.
type Generator interface {
	Answer(ctx context.Context, req AnswerRequest) (string, bool)
	Summarize(ctx context.Context, req SummaryRequest) (string, bool)
	ExtractImageText(ctx context.Context, data []byte, mimeType string) (string, bool)
	DescribeImage(ctx context.Context, data []byte, mimeType string) (string, bool)
}

// Image is inline image input for a prompt.
type Image struct {
	MIMEType string
	Data     []byte
}

// Prompt is a single-turn request to a backend.
type Prompt struct {
	Text      string
	Image     *Image
	MaxTokens int
}

// Backend performs one completion against a concrete provider API.
type Backend interface {
	Name() string
	Model() string
	Complete(ctx context.Context, p Prompt) (string, error)
	Close()
}

// Options tunes a Client.
type Options struct {
	AnswerTimeout   time.Duration
	SummaryTimeout  time.Duration
	ImageTimeout    time.Duration
	MaxContextChars int
}

// Client implements Generator on top of a Backend.
type Client struct {
	backend Backend
	log     *slog.Logger
	opts    Options
	Stats   *CallStats
}

var _ Generator = (*Client)(nil)

// NewClient wraps a backend.
func NewClient(backend Backend, log *slog.Logger, opts Options) *Client {
	if opts.AnswerTimeout <= 0 {
		opts.AnswerTimeout = 20 * time.Second
	}
	if opts.SummaryTimeout <= 0 {
		opts.SummaryTimeout = 30 * time.Second
	}
	if opts.ImageTimeout <= 0 {
		opts.ImageTimeout = 30 * time.Second
	}
	if opts.MaxContextChars <= 0 {
		opts.MaxContextChars = 6000
	}
	return &Client{
		backend: backend,
		log:     log.With("backend", backend.Name(), "model", backend.Model()),
		opts:    opts,
		Stats:   NewCallStats(time.Hour),
	}
}

// New builds a Client from configuration. It returns nil when no provider
// is configured or credentials are missing.
func New(cfg config.Config, log *slog.Logger) *Client {
	opts := Options{
		AnswerTimeout:   cfg.AnswerTimeout,
		SummaryTimeout:  cfg.SummaryTimeout,
		ImageTimeout:    cfg.ImageTimeout,
		MaxContextChars: cfg.MaxContextChars,
	}

	provider := cfg.Generator
	if provider == "auto" {
		switch {
		case cfg.GeminiAPIKey != "":
			provider = "gemini"
		case cfg.AnthropicAPIKey != "":
			provider = "anthropic"
		default:
			provider = "none"
		}
	}

	switch provider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			log.Warn("gemini selected but GEMINI_API_KEY is empty; generation disabled")
			return nil
		}
		return NewClient(NewGeminiBackend(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL), log, opts)
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			log.Warn("anthropic selected but ANTHROPIC_API_KEY is empty; generation disabled")
			return nil
		}
		return NewClient(NewClaudeBackend(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.AnthropicBaseURL), log, opts)
	default:
		log.Info("no generation collaborator configured; using extractive fallbacks")
		return nil
	}
}

// Model returns the backend model name.
func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.backend.Model()
}

// Answer generates an answer from the selected passages.
func (c *Client) Answer(ctx context.Context, req AnswerRequest) (string, bool) {
	if c == nil {
		return "", false
	}
	prompt, ok := BuildAnswerPrompt(req, c.opts.MaxContextChars)
	if !ok {
		return "", false
	}
	return c.complete(ctx, "answer", c.opts.AnswerTimeout, Prompt{Text: prompt, MaxTokens: 1024})
}

// Summarize generates a structured summary from ordered text chunks.
func (c *Client) Summarize(ctx context.Context, req SummaryRequest) (string, bool) {
	if c == nil {
		return "", false
	}
	prompt, ok := BuildSummaryPrompt(req)
	if !ok {
		return "", false
	}
	return c.complete(ctx, "summary", c.opts.SummaryTimeout, Prompt{Text: prompt, MaxTokens: 1024})
}

// ExtractImageText asks for the visible text in an image.
func (c *Client) ExtractImageText(ctx context.Context, data []byte, mimeType string) (string, bool) {
	if c == nil || len(data) == 0 {
		return "", false
	}
	return c.complete(ctx, "image_ocr", c.opts.ImageTimeout, Prompt{
		Text:      ImageTextPrompt,
		Image:     &Image{MIMEType: imageMIME(mimeType), Data: data},
		MaxTokens: 2048,
	})
}

// DescribeImage asks for a factual description of an image.
func (c *Client) DescribeImage(ctx context.Context, data []byte, mimeType string) (string, bool) {
	if c == nil || len(data) == 0 {
		return "", false
	}
	return c.complete(ctx, "image_describe", c.opts.ImageTimeout, Prompt{
		Text:      DescribeImagePrompt,
		Image:     &Image{MIMEType: imageMIME(mimeType), Data: data},
		MaxTokens: 1024,
	})
}

func (c *Client) complete(ctx context.Context, op string, timeout time.Duration, p Prompt) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	text, err := c.backend.Complete(ctx, p)
	elapsed := time.Since(start).Milliseconds()

	if err == nil {
		text = strings.TrimSpace(text)
		if text == "" {
			err = errors.New("empty reply")
		}
	}
	c.Stats.Record(elapsed, err == nil)

	if err != nil {
		var retryErr *RetryableError
		c.log.Warn("generation unavailable",
			"operation", op,
			"duration_ms", elapsed,
			"retryable", errors.As(err, &retryErr),
			"error", err,
		)
		return "", false
	}
	return text, true
}

// Close releases backend resources.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.backend.Close()
}

func imageMIME(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if !strings.HasPrefix(mimeType, "image/") {
		return "image/png"
	}
	return mimeType
}

// RetryableError indicates a transient provider failure (rate limit or 5xx).
// Calls are never retried automatically; the type only classifies failures.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
