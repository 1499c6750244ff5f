package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/directory-enrich/internal/config"
	"github.com/sells-group/directory-enrich/internal/importer"
)

var (
	importCSVPath string
	importChunk   int
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Seed contractor records from a CSV of company names",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate(config.ModeStore); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		res, err := importer.ImportFile(ctx, afero.NewOsFs(), importCSVPath, st, importChunk)
		if err != nil {
			return err
		}

		zap.L().Info("import complete",
			zap.String("csv", importCSVPath),
			zap.Int("read", res.Read),
			zap.Int("unique", res.Unique),
			zap.Int("existing", res.Existing),
			zap.Int("inserted", res.Inserted),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d unique companies (%d already present).\n",
			res.Inserted, res.Unique, res.Existing)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importCSVPath, "csv", "", "path to CSV file, one company per line (required)")
	importCmd.Flags().IntVar(&importChunk, "chunk", importer.DefaultChunkSize, "records per insert")
	_ = importCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(importCmd)
}
