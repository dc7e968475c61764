package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"paysync-server/internal/app"
	"paysync-server/internal/services"
)

func syncCmd() *cobra.Command {
	var (
		start string
		end   string
		file  string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one ingestion cycle",
		Long: `Run one ingestion cycle against the PayPal reporting API, or import a
saved reporting API response with --file.

Examples:
  paysync sync
  paysync sync --start 2024-01-01 --end 2024-01-02
  paysync sync --file report.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logger, err := loadEnv()
			if err != nil {
				return err
			}

			if file == "" {
				if err := cfg.RequirePayPal(); err != nil {
					return err
				}
			}

			application, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			var result *services.SyncResult
			if file != "" {
				payload, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read report file: %w", err)
				}
				result, err = application.Sync.Import(ctx, payload)
				if err != nil {
					return err
				}
			} else {
				result, err = application.Sync.Run(ctx, services.SyncRequest{StartDate: start, EndDate: end})
				if err != nil {
					return err
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]int{
				"fetched":  result.Fetched,
				"inserted": result.Inserted,
				"skipped":  result.Skipped,
			})
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "window start, YYYY-MM-DD or RFC3339")
	cmd.Flags().StringVar(&end, "end", "", "window end, YYYY-MM-DD or RFC3339")
	cmd.Flags().StringVarP(&file, "file", "f", "", "import a saved reporting API response instead of calling PayPal")
	cmd.MarkFlagsMutuallyExclusive("file", "start")
	cmd.MarkFlagsMutuallyExclusive("file", "end")

	return cmd
}
