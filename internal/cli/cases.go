package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/casewatch/internal/dashboard"
	"github.com/ppiankov/casewatch/internal/grouping"
	"github.com/ppiankov/casewatch/internal/model"
	"github.com/ppiankov/casewatch/internal/report"
	"github.com/ppiankov/casewatch/internal/store"
)

var (
	courts      []string
	fromDate    string
	toDate      string
	citizenship string
	markdown    bool
)

// casesCmd represents the cases command
var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "Print stored wrongful cases as a table",
	Long: `Cases applies the dashboard filters to the stored case file and prints
the matching wrongful deportation and detention cases, grouped by person.

Example:
  casewatch cases
  casewatch cases --court "D. Md." --from 2025-01-01
  casewatch cases --citizenship us --md > cases.md`,
	Args: cobra.NoArgs,
	RunE: runCases,
}

func init() {
	rootCmd.AddCommand(casesCmd)

	casesCmd.Flags().StringArrayVar(&courts, "court", nil, "court to include (repeatable)")
	casesCmd.Flags().StringVar(&fromDate, "from", "", "earliest filing date (YYYY-MM-DD)")
	casesCmd.Flags().StringVar(&toDate, "to", "", "latest filing date (YYYY-MM-DD)")
	casesCmd.Flags().StringVar(&citizenship, "citizenship", "all", "citizenship filter (all, us, non-us, unknown)")
	casesCmd.Flags().BoolVar(&markdown, "md", false, "render Markdown instead of a terminal table")
	casesCmd.Flags().StringVar(&csvPath, "csv", "", "case file path (default from config)")
}

// buildFilter turns the command flags into a dashboard filter
func buildFilter(courts []string, from, to, citizenship string) (dashboard.Filter, error) {
	f := dashboard.Filter{Courts: courts}

	var err error
	if from != "" {
		if f.From, err = time.Parse(model.DateLayout, from); err != nil {
			return f, fmt.Errorf("invalid --from date: %w", err)
		}
	}
	if to != "" {
		if f.To, err = time.Parse(model.DateLayout, to); err != nil {
			return f, fmt.Errorf("invalid --to date: %w", err)
		}
	}
	if f.Citizenship, err = dashboard.ParseCitizenship(citizenship); err != nil {
		return f, err
	}
	return f, nil
}

func runCases(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cmd.Flags().Changed("csv") {
		cfg.Store.Path = csvPath
	}
	filter, err := buildFilter(courts, fromDate, toDate, citizenship)
	if err != nil {
		return err
	}
	mode, err := grouping.ParseMode(cfg.Grouping.Mode)
	if err != nil {
		return err
	}

	ds, err := store.Load(cfg.Store.Path, logger)
	if err != nil {
		return fmt.Errorf("load case file: %w", err)
	}

	out := report.ASCII
	if markdown {
		out = report.Markdown
	}
	view := dashboard.Build(ds.Records(), filter, mode, cfg.Dashboard.SiteURL)
	return report.Cases(cmd.OutOrStdout(), view, out)
}
