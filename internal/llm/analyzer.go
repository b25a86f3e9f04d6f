package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/casewatch/internal/model"
	"github.com/ppiankov/casewatch/internal/worker"
)

// limiterKey buckets every LLM call under one rate regardless of provider host
const limiterKey = "llm"

// Analyzer turns opinion text into an Analysis using the configured provider
type Analyzer struct {
	provider Provider
	limiter  *worker.Limiter
	logger   *zap.Logger
}

// NewAnalyzer wraps provider. A nil provider yields an analyzer that
// always returns ErrDisabled.
func NewAnalyzer(provider Provider, limiter *worker.Limiter, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		provider: provider,
		limiter:  limiter,
		logger:   logger.Named("llm"),
	}
}

// Enabled reports whether a provider is configured
func (a *Analyzer) Enabled() bool {
	return a != nil && a.provider != nil
}

// Provider returns the provider name, or "none"
func (a *Analyzer) Provider() string {
	if !a.Enabled() {
		return "none"
	}
	return a.provider.Name()
}

// Analyze extracts the structured fields for one case
func (a *Analyzer) Analyze(ctx context.Context, caseName, text string) (*model.Analysis, error) {
	if !a.Enabled() {
		return nil, ErrDisabled
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("analyze %q: empty case text", caseName)
	}

	if a.limiter != nil {
		if err := a.limiter.WaitKey(ctx, limiterKey); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	start := time.Now()
	resp, err := a.provider.Extract(ctx, ExtractRequest{CaseName: caseName, Text: text})
	if err != nil {
		return nil, fmt.Errorf("analyze %q: %w", caseName, err)
	}

	a.logger.Debug("case analyzed",
		zap.String("case", caseName),
		zap.String("model", resp.Model),
		zap.Int("tokens", resp.TokensUsed),
		zap.Duration("took", time.Since(start)),
	)

	return resp.Analysis, nil
}
