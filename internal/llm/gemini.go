package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-1.5-flash"

// GeminiProvider implements the Provider interface for Google Gemini models
type GeminiProvider struct {
	config Config
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(config Config) (*GeminiProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	return &GeminiProvider{config: config}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// IsAvailable checks that the configured model can be described
func (p *GeminiProvider) IsAvailable(ctx context.Context) bool {
	cl, err := p.newClient(ctx)
	if err != nil {
		return false
	}
	defer func() { _ = cl.Close() }()

	_, err = cl.GenerativeModel(p.model("")).Info(ctx)
	return err == nil
}

// Extract runs the case analysis with a JSON response MIME type
func (p *GeminiProvider) Extract(ctx context.Context, req ExtractRequest) (*ExtractResponse, error) {
	cl, err := p.newClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	defer func() { _ = cl.Close() }()

	modelName := p.model(req.Model)
	m := cl.GenerativeModel(modelName)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(p.config.Temperature),
		MaxOutputTokens:  ptrInt32(int32(p.config.maxTokens(req))),
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(SystemPrompt)},
	}

	resp, err := m.GenerateContent(ctx, genai.Text(p.config.prompt(req)))
	if err != nil {
		return nil, fmt.Errorf("gemini API error: %w", err)
	}

	raw := firstText(resp)
	if raw == "" {
		return nil, fmt.Errorf("no content in Gemini response")
	}

	analysis, err := ParseAnalysis(raw)
	if err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	return &ExtractResponse{
		Analysis:   analysis,
		Raw:        raw,
		Model:      modelName,
		TokensUsed: tokens,
	}, nil
}

func (p *GeminiProvider) newClient(ctx context.Context) (*genai.Client, error) {
	opts := []option.ClientOption{option.WithAPIKey(p.config.APIKey)}
	if p.config.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(p.config.BaseURL))
	}
	return genai.NewClient(ctx, opts...)
}

func (p *GeminiProvider) model(override string) string {
	m := strings.TrimSpace(override)
	if m == "" {
		m = strings.TrimSpace(p.config.Model)
	}
	if m == "" || strings.HasPrefix(m, "claude") {
		return defaultGeminiModel
	}
	return m
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, part := range c.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }

func ptrInt32(v int32) *int32 { return &v }
