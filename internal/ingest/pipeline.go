// Package ingest runs one pass of search, text retrieval, analysis and
// persistence.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/casewatch/internal/cache"
	"github.com/ppiankov/casewatch/internal/courtlistener"
	"github.com/ppiankov/casewatch/internal/extract"
	"github.com/ppiankov/casewatch/internal/llm"
	"github.com/ppiankov/casewatch/internal/model"
	"github.com/ppiankov/casewatch/internal/store"
	"github.com/ppiankov/casewatch/internal/worker"
)

// caseDelayFunc paces new cases; tests replace it
var caseDelayFunc = worker.Pause

// Source is the records API the pipeline reads from
type Source interface {
	Search(ctx context.Context, opts courtlistener.SearchOptions) ([]model.SearchResult, error)
	FetchOpinionText(ctx context.Context, id int64, caseName string) (string, error)
}

// Analyzer extracts the structured fields for one case
type Analyzer interface {
	Analyze(ctx context.Context, caseName, text string) (*model.Analysis, error)
}

// RunStats summarises one ingestion run
type RunStats struct {
	RunID      string
	Found      int // hits returned by the search
	Skipped    int // already stored or without docket
	Added      int
	Analyzed   int // new rows with a successful analysis
	Failed     int // new rows whose text or analysis failed
	Reanalyzed int // existing rows repaired in reanalyze mode
	Duration   time.Duration
}

// Pipeline orchestrates the ingestion run
type Pipeline struct {
	cfg      *model.Config
	source   Source
	analyzer Analyzer
	texts    cache.Cache
	logger   *zap.Logger
}

// NewPipeline wires the run. A nil text cache disables caching.
func NewPipeline(cfg *model.Config, source Source, analyzer Analyzer, texts cache.Cache, logger *zap.Logger) *Pipeline {
	if texts == nil {
		texts = cache.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		cfg:      cfg,
		source:   source,
		analyzer: analyzer,
		texts:    texts,
		logger:   logger.Named("ingest"),
	}
}

// Run loads the case file, adds every new hit and saves the result. Search
// errors, including a missing API key, are logged and the hits gathered so
// far are still processed. Only load and save errors are returned.
func (p *Pipeline) Run(ctx context.Context) (*RunStats, error) {
	start := time.Now()
	stats := &RunStats{RunID: uuid.NewString()}
	log := p.logger.With(zap.String("run_id", stats.RunID))

	path := p.cfg.Store.Path
	ds, err := store.Load(path, log)
	if err != nil {
		return stats, fmt.Errorf("load case file: %w", err)
	}
	existing := ds.Len()
	log.Info("Starting ingestion", zap.String("path", path), zap.Int("existing", existing))

	hits, err := p.source.Search(ctx, courtlistener.SearchOptions{
		MaxPages:  p.cfg.Ingest.MaxPages,
		FetchText: p.cfg.Ingest.FullText,
	})
	switch {
	case errors.Is(err, courtlistener.ErrMissingAPIKey):
		log.Error("Search skipped, set COURTLISTENER_API_KEY", zap.Error(err))
	case err != nil:
		log.Error("Search stopped early", zap.Error(err), zap.Int("hits", len(hits)))
	}
	stats.Found = len(hits)

	if p.cfg.Ingest.Reanalyze {
		stats.Reanalyzed = p.reanalyzeMissing(ctx, log, ds, hits)
	}

	analysisOff := false
	for _, hit := range hits {
		if ctx.Err() != nil {
			log.Warn("Run cancelled, saving processed cases", zap.Error(ctx.Err()))
			break
		}

		rec := hit.Record()
		if rec.DocketNumber == "" {
			log.Debug("Skipping hit without docket number", zap.String("case_name", hit.CaseName))
			stats.Skipped++
			continue
		}
		if ds.Has(rec.DocketNumber) {
			log.Info("Case already present, skipping",
				zap.String("case_name", hit.CaseName),
				zap.String("docket", rec.DocketNumber))
			stats.Skipped++
			continue
		}

		if stats.Added > 0 {
			if err := caseDelayFunc(ctx, p.cfg.Ingest.CaseDelay); err != nil {
				log.Warn("Run cancelled, saving processed cases", zap.Error(err))
				break
			}
		}

		log.Info("Processing new case", zap.String("case_name", hit.CaseName), zap.String("docket", rec.DocketNumber))
		analysis, err := p.analyze(ctx, hit)
		switch {
		case errors.Is(err, llm.ErrDisabled):
			if !analysisOff {
				log.Warn("LLM analysis disabled, storing cases without analysis")
				analysisOff = true
			}
		case err != nil:
			log.Error("Case analysis failed, storing blank fields",
				zap.String("docket", rec.DocketNumber), zap.Error(err))
			stats.Failed++
		default:
			rec.Apply(analysis)
			stats.Analyzed++
		}

		if ds.Add(rec) {
			stats.Added++
		}
	}

	if stats.Added == 0 && stats.Reanalyzed == 0 {
		log.Info("No new cases found")
	}
	if err := store.Save(path, ds.Records()); err != nil {
		return stats, fmt.Errorf("save case file: %w", err)
	}
	log.Info("Saved case file", zap.String("path", path), zap.Int("rows", ds.Len()))

	stats.Duration = time.Since(start)
	log.Info("Ingestion complete",
		zap.Int("found", stats.Found),
		zap.Int("added", stats.Added),
		zap.Int("skipped", stats.Skipped),
		zap.Int("analyzed", stats.Analyzed),
		zap.Int("failed", stats.Failed),
		zap.Int("reanalyzed", stats.Reanalyzed),
		zap.Duration("took", stats.Duration))

	return stats, nil
}

// analyze fetches the case text and runs the model on it
func (p *Pipeline) analyze(ctx context.Context, hit model.SearchResult) (*model.Analysis, error) {
	text, err := p.caseText(ctx, hit)
	if err != nil {
		return nil, err
	}
	return p.analyzer.Analyze(ctx, hit.CaseName, extract.PlainText(text))
}

// caseText returns the opinion body from the hit, the cache or the API
func (p *Pipeline) caseText(ctx context.Context, hit model.SearchResult) (string, error) {
	if hit.Text != "" {
		return hit.Text, nil
	}
	if hit.TextErr != nil {
		return "", fmt.Errorf("fetch text: %w", hit.TextErr)
	}
	if hit.CaseID == 0 {
		return "", fmt.Errorf("case %q has no opinion id", hit.CaseName)
	}

	key := cache.OpinionKey(hit.CaseID)
	if cached, ok := p.texts.Get(key); ok {
		p.logger.Debug("Opinion text cache hit", zap.Int64("opinion_id", hit.CaseID))
		return string(cached), nil
	}

	text, err := p.source.FetchOpinionText(ctx, hit.CaseID, hit.CaseName)
	if err != nil {
		return "", fmt.Errorf("fetch text: %w", err)
	}
	if err := p.texts.Set(key, []byte(text), 0); err != nil {
		p.logger.Warn("Failed to cache opinion text", zap.Int64("opinion_id", hit.CaseID), zap.Error(err))
	}
	return text, nil
}

// ReanalyzeMissing retries analysis for stored rows with blank analysis
// fields. Only rows that appear in hits can be retried, since the case file
// does not keep opinion ids.
func (p *Pipeline) ReanalyzeMissing(ctx context.Context, ds *store.Dataset, hits []model.SearchResult) int {
	return p.reanalyzeMissing(ctx, p.logger, ds, hits)
}

func (p *Pipeline) reanalyzeMissing(ctx context.Context, log *zap.Logger, ds *store.Dataset, hits []model.SearchResult) int {
	byDocket := make(map[string]model.SearchResult, len(hits))
	for _, hit := range hits {
		rec := hit.Record()
		if rec.DocketNumber != "" {
			if _, seen := byDocket[rec.DocketNumber]; !seen {
				byDocket[rec.DocketNumber] = hit
			}
		}
	}

	repaired, attempts := 0, 0
	for i, rec := range ds.Records() {
		if rec.HasAnalysis() {
			continue
		}
		hit, ok := byDocket[rec.DocketNumber]
		if !ok {
			continue
		}

		if attempts > 0 {
			if err := caseDelayFunc(ctx, p.cfg.Ingest.CaseDelay); err != nil {
				break
			}
		}
		attempts++

		analysis, err := p.analyze(ctx, hit)
		if errors.Is(err, llm.ErrDisabled) {
			log.Warn("LLM analysis disabled, nothing to reanalyze")
			return repaired
		}
		if err != nil {
			log.Warn("Reanalysis failed", zap.String("docket", rec.DocketNumber), zap.Error(err))
			continue
		}

		rec.Apply(analysis)
		ds.Update(i, rec)
		repaired++
		log.Info("Reanalyzed case", zap.String("docket", rec.DocketNumber))
	}
	return repaired
}
