package llm

import (
	"context"
	"errors"

	"github.com/ppiankov/casewatch/internal/model"
)

// ErrDisabled is returned by an Analyzer with no provider configured
var ErrDisabled = errors.New("LLM analysis disabled")

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Extract asks the model for the structured case fields
	Extract(ctx context.Context, req ExtractRequest) (*ExtractResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// ExtractRequest contains the input for structured extraction
type ExtractRequest struct {
	// CaseName is the caption as returned by the search API
	CaseName string

	// Text is the opinion body (already converted to plain text)
	Text string

	// Prompt overrides the default prompt when set
	Prompt string

	// Model overrides the configured model when set
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// ExtractResponse contains the parsed analysis and raw reply
type ExtractResponse struct {
	Analysis   *model.Analysis
	Raw        string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "anthropic", "openai", "ollama", "gemini", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, proxies)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Temperature for sampling
	Temperature float32

	// MaxChars caps the case text placed in the prompt
	MaxChars int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "anthropic",
		Model:       "claude-3-5-sonnet-20240620",
		Timeout:     120,
		MaxTokens:   4000,
		Temperature: 0.1,
		MaxChars:    DefaultMaxChars,
	}
}

// ConfigFromModel converts the application config into provider config
func ConfigFromModel(cfg model.LLMConfig, httpCfg model.HTTPConfig) Config {
	return Config{
		Provider:    cfg.Provider,
		Model:       cfg.Model,
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Timeout:     cfg.Timeout,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		MaxChars:    cfg.MaxChars,
		HTTPProxy:   httpCfg.HTTPProxy,
		HTTPSProxy:  httpCfg.HTTPSProxy,
	}
}

func (c Config) maxTokens(req ExtractRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 4000
}

func (c Config) prompt(req ExtractRequest) string {
	if req.Prompt != "" {
		return req.Prompt
	}
	return BuildPrompt(req.CaseName, req.Text, c.MaxChars)
}
