package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/casewatch/internal/dashboard"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the case dashboard",
	Long: `Serve starts the web dashboard over the stored case file.

The file is re-read whenever it changes on disk, so a running dashboard
picks up the results of later ingest runs.

Endpoints:
  GET /            HTML dashboard with filters
  GET /api/cases   filtered, grouped cases as JSON
  GET /api/stats   headline metrics and filter options
  GET /healthz     liveness probe

Example:
  casewatch serve
  casewatch serve --addr :8080 --csv cases.csv`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8501", "listen address")
	serveCmd.Flags().StringVar(&csvPath, "csv", "", "case file path (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cmd.Flags().Changed("addr") {
		cfg.Dashboard.Addr = serveAddr
	}
	if cmd.Flags().Changed("csv") {
		cfg.Store.Path = csvPath
	}

	srv, err := dashboard.NewServer(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx, cfg.Dashboard.Addr)
}
