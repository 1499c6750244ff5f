package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/directory-enrich/internal/config"
	"github.com/sells-group/directory-enrich/internal/enrich"
)

var (
	enrichLimit  int
	enrichDryRun bool
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Research and apply one batch of incomplete records",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		opts := []enrich.RunnerOption{enrich.WithDryRun(enrichDryRun)}
		if enrichLimit > 0 {
			opts = append(opts, enrich.WithBatchSize(enrichLimit))
		}

		env, err := initApp(ctx, config.ModeEnrich, true, opts...)
		if err != nil {
			return err
		}
		defer env.Close()

		summary, err := env.Runner.Run(ctx)
		if summary != nil {
			fmt.Fprint(cmd.OutOrStdout(), summary.Report())
		} else if err == nil {
			zap.L().Info("all records are complete")
			fmt.Fprintln(cmd.OutOrStdout(), "No incomplete records.")
		}
		return err
	},
}

func init() {
	enrichCmd.Flags().IntVar(&enrichLimit, "limit", 0, "records per batch, at most 20 (default from config)")
	enrichCmd.Flags().BoolVar(&enrichDryRun, "dry-run", false, "research and persist the batch without updating records")
	rootCmd.AddCommand(enrichCmd)
}
