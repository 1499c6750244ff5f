package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/directory-enrich/internal/config"
	"github.com/sells-group/directory-enrich/internal/model"
)

var (
	statusFormat string
	statusNames  bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show directory coverage and incomplete records",
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

		stats, err := st.Stats(ctx)
		if err != nil {
			return eris.Wrap(err, "status: load stats")
		}
		if !statusNames {
			stats.IncompleteNames = nil
		}
		return renderStats(cmd.OutOrStdout(), stats, statusFormat)
	},
}

func renderStats(w io.Writer, s *model.Stats, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close() //nolint:errcheck
		return enc.Encode(s)
	case "", "text":
		missing := s.Total - s.WithCoordinates
		fmt.Fprintf(w, "Total records:        %d\n", s.Total)
		fmt.Fprintf(w, "Incomplete:           %d\n", s.Incomplete)
		fmt.Fprintf(w, "With coordinates:     %d\n", s.WithCoordinates)
		fmt.Fprintf(w, "Missing coordinates:  %d\n", missing)
		if len(s.IncompleteNames) > 0 {
			fmt.Fprintln(w, "\nIncomplete records:")
			for i, n := range s.IncompleteNames {
				fmt.Fprintf(w, "  %d. %s\n", i+1, n)
			}
		}
		return nil
	default:
		return eris.Errorf("status: unknown format %q", format)
	}
}

func init() {
	statusCmd.Flags().StringVar(&statusFormat, "format", "text", "output format: text, json or yaml")
	statusCmd.Flags().BoolVar(&statusNames, "names", true, "list the names of incomplete records")
	rootCmd.AddCommand(statusCmd)
}
