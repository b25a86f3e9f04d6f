package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/casewatch/internal/cache"
	"github.com/ppiankov/casewatch/internal/courtlistener"
	"github.com/ppiankov/casewatch/internal/ingest"
	"github.com/ppiankov/casewatch/internal/llm"
	"github.com/ppiankov/casewatch/internal/model"
	"github.com/ppiankov/casewatch/internal/report"
	"github.com/ppiankov/casewatch/internal/worker"
)

var (
	maxPages    int
	fullText    bool
	csvPath     string
	caseDelay   time.Duration
	llmProvider string
	llmModel    string
	reanalyze   bool
	publishRun  bool
	noCache     bool
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch new cases from CourtListener and analyze them",
	Long: `Ingest runs one pass of the collection pipeline:
- Search CourtListener for wrongful deportation and detention opinions
- Skip cases whose docket number is already stored
- Fetch each new opinion's text and extract structured facts with an LLM
- Append the new rows to the CSV file

Cases whose analysis fails are stored with blank analysis fields. A missing
LLM or CourtListener key is logged and the run still writes the case file.

Example:
  casewatch ingest
  casewatch ingest --max-pages 5 --csv cases.csv
  casewatch ingest --llm-provider openai --llm-model gpt-4o-mini
  casewatch ingest --reanalyze --publish`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().IntVar(&maxPages, "max-pages", 2, "maximum search result pages (0 = all)")
	ingestCmd.Flags().BoolVar(&fullText, "full-text", false, "fetch opinion text while paging search results")
	ingestCmd.Flags().StringVar(&csvPath, "csv", "", "case file path (default from config)")
	ingestCmd.Flags().DurationVar(&caseDelay, "case-delay", 5*time.Second, "pause between new cases")
	ingestCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (anthropic, openai, ollama, gemini, none)")
	ingestCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
	ingestCmd.Flags().BoolVar(&reanalyze, "reanalyze", false, "retry analysis for stored cases with blank fields")
	ingestCmd.Flags().BoolVar(&publishRun, "publish", false, "upload the case file to the object store afterwards")
	ingestCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the opinion text cache")
}

func applyIngestFlags(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("max-pages") {
		cfg.Ingest.MaxPages = maxPages
	}
	if flags.Changed("full-text") {
		cfg.Ingest.FullText = fullText
	}
	if flags.Changed("csv") {
		cfg.Store.Path = csvPath
	}
	if flags.Changed("case-delay") {
		cfg.Ingest.CaseDelay = caseDelay
	}
	if flags.Changed("llm-provider") && !strings.EqualFold(llmProvider, cfg.LLM.Provider) {
		// model, key and endpoint belong to the configured provider
		cfg.LLM.Provider = llmProvider
		cfg.LLM.Model = ""
		cfg.LLM.APIKey = ""
		cfg.LLM.BaseURL = ""
	}
	if flags.Changed("llm-model") {
		cfg.LLM.Model = llmModel
	}
	if flags.Changed("reanalyze") {
		cfg.Ingest.Reanalyze = reanalyze
	}
	if flags.Changed("publish") {
		cfg.Ingest.Publish = publishRun
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	applyIngestFlags(cmd, cfg)
	// provider keys depend on the provider chosen by flag
	applyEnvAliases(cfg, os.Getenv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limiter := worker.NewLimiter(cfg.CourtListener.PageRate, 1)
	client := courtlistener.NewClient(cfg.CourtListener, cfg.HTTP, limiter, logger)

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
	if err != nil {
		logger.Warn("LLM provider unavailable, storing cases without analysis", zap.Error(err))
		provider = nil
	}
	analyzer := llm.NewAnalyzer(provider, limiter, logger)
	logger.Info("Analysis provider", zap.String("provider", analyzer.Provider()), zap.String("model", cfg.LLM.Model))

	p := ingest.NewPipeline(cfg, client, analyzer, cache.New(cfg.Cache), logger)
	stats, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if err := report.Run(cmd.OutOrStdout(), stats, report.ASCII); err != nil {
		return err
	}

	if cfg.Ingest.Publish {
		url, err := publishFile(ctx, cfg, cfg.ObjectStore.Key)
		if err != nil {
			return err
		}
		logger.Info("Published case file", zap.String("url", url))
	}
	return nil
}
