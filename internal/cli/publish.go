package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/casewatch/internal/model"
	"github.com/ppiankov/casewatch/internal/store"
)

var objectKey string

// publishCmd represents the publish command
var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Upload the case file to an S3-compatible bucket",
	Long: `Publish uploads the stored case file to the configured object store
(MinIO, S3 or any S3-compatible endpoint). The bucket is created if missing.

Configure the endpoint in ~/.casewatch/config.yaml under object_store, and
pass credentials through MINIO_ACCESS_KEY and MINIO_SECRET_KEY.

Example:
  casewatch publish
  casewatch publish --csv cases.csv --key snapshots/cases.csv`,
	Args: cobra.NoArgs,
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)

	publishCmd.Flags().StringVar(&csvPath, "csv", "", "case file path (default from config)")
	publishCmd.Flags().StringVar(&objectKey, "key", "", "object key (default from config)")
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cmd.Flags().Changed("csv") {
		cfg.Store.Path = csvPath
	}
	key := cfg.ObjectStore.Key
	if objectKey != "" {
		key = objectKey
	}

	url, err := publishFile(cmd.Context(), cfg, key)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Published %s to %s\n", cfg.Store.Path, url)
	return nil
}

func publishFile(ctx context.Context, cfg *model.Config, key string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := os.Stat(cfg.Store.Path); err != nil {
		return "", fmt.Errorf("case file: %w", err)
	}

	objects, err := store.NewObjectStore(ctx, cfg.ObjectStore)
	if err != nil {
		return "", fmt.Errorf("connect object store: %w", err)
	}
	url, err := objects.Publish(ctx, cfg.Store.Path, key)
	if err != nil {
		return "", fmt.Errorf("publish: %w", err)
	}
	return url, nil
}
