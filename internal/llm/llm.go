// Package llm is the external text-generation collaborator.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stellarlinkco/packmate/internal/config"
)

var (
	ErrMissingKey   = errors.New("missing api key")
	ErrEmptyContent = errors.New("empty content in response")
)

// Options tune one generation call.
type Options struct {
	System      string
	MaxTokens   int
	Temperature float64
}

// Generator turns a prompt into text. Implementations are safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string, opts Options) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	return f(ctx, prompt, opts)
}

// New picks the backend for cfg.Provider.Type. Groq and OpenAI go through the
// openai-go SDK; "http" uses the plain chat-completions client.
func New(cfg *config.Config) (Generator, error) {
	p := cfg.Provider
	if strings.TrimSpace(p.APIKey) == "" {
		return nil, ErrMissingKey
	}
	switch p.Type {
	case config.ProviderGroq, config.ProviderOpenAI, "":
		return NewOpenAIGenerator(OpenAIConfig{APIKey: p.APIKey, BaseURL: p.BaseURL, Model: p.Model})
	case config.ProviderHTTP:
		return NewHTTPGenerator(HTTPConfig{APIKey: p.APIKey, BaseURL: p.BaseURL, Model: p.Model}), nil
	default:
		return nil, fmt.Errorf("unknown provider type %q", p.Type)
	}
}

func defaultHTTPClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return &http.Client{Timeout: 30 * time.Second}
}
