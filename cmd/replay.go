package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/directory-enrich/internal/config"
	"github.com/sells-group/directory-enrich/internal/ledger"
	"github.com/sells-group/directory-enrich/internal/model"
)

var (
	replayBatch int
	replayAll   bool
	replayFile  string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Re-apply saved research results from the batch ledger",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := checkReplayFlags(replayBatch, replayAll, replayFile); err != nil {
			return err
		}
		ctx := cmd.Context()

		env, err := initApp(ctx, config.ModeReplay, false)
		if err != nil {
			return err
		}
		defer env.Close()

		jobs, err := replayJobs(env.Ledger, replayBatch, replayAll, replayFile)
		if err != nil {
			return err
		}

		var firstErr error
		for _, job := range jobs {
			summary, err := env.Runner.Apply(ctx, job.batch, job.candidates)
			if summary != nil {
				fmt.Fprint(cmd.OutOrStdout(), summary.Report())
			}
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	},
}

type replayJob struct {
	batch      int
	candidates []model.Candidate
}

func checkReplayFlags(batch int, all bool, file string) error {
	set := 0
	if batch > 0 && file == "" {
		set++
	}
	if all {
		set++
	}
	if file != "" {
		set++
	}
	if set != 1 {
		return eris.New("replay: exactly one of --batch, --all or --file is required")
	}
	return nil
}

// replayJobs loads the candidates to re-apply. With --file, --batch only
// labels the run.
func replayJobs(led *ledger.Ledger, batch int, all bool, file string) ([]replayJob, error) {
	switch {
	case file != "":
		candidates, err := led.LoadFile(file)
		if err != nil {
			return nil, err
		}
		return []replayJob{{batch: batch, candidates: candidates}}, nil

	case all:
		nums, err := led.List()
		if err != nil {
			return nil, err
		}
		if len(nums) == 0 {
			return nil, eris.Errorf("replay: no batch results in %s", led.Dir())
		}
		jobs := make([]replayJob, 0, len(nums))
		for _, n := range nums {
			candidates, err := led.LoadCandidates(n)
			if err != nil {
				return nil, err
			}
			jobs = append(jobs, replayJob{batch: n, candidates: candidates})
		}
		return jobs, nil

	default:
		candidates, err := led.LoadCandidates(batch)
		if err != nil {
			return nil, err
		}
		return []replayJob{{batch: batch, candidates: candidates}}, nil
	}
}

func init() {
	replayCmd.Flags().IntVar(&replayBatch, "batch", 0, "ledger batch number to replay")
	replayCmd.Flags().BoolVar(&replayAll, "all", false, "replay every batch with results, oldest first")
	replayCmd.Flags().StringVar(&replayFile, "file", "", "replay a results JSON file instead of a ledger batch")
	rootCmd.AddCommand(replayCmd)
}
