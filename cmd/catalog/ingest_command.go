package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/alldopamine/catalog"
	"github.com/alldopamine/catalog/internal/domain"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var stage bool

	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Ingest crawler records from a JSON file (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			envs, err := readEnvelopes(args[0])
			if err != nil {
				return err
			}

			return withBatchLock(cfg.Batch.LockFile, func() error {
				return ctx.withApp(cmd.Context(), func(a *app) error {
					if stage {
						return stageRecords(cmd, a, envs)
					}
					return ingestRecords(cmd, a, envs)
				})
			})
		},
	}
	cmd.Flags().BoolVar(&stage, "stage", false, "Stage records for integration instead of ingesting them")
	return cmd
}

type envelopeError struct {
	index int
	err   error
}

func ingestRecords(cmd *cobra.Command, a *app, envs []catalog.Envelope) error {
	recs, bad := decodeRecords(envs)

	positions := make([]int, 0, len(recs))
	valid := make([]domain.PlatformRecord, 0, len(recs))
	for i, rec := range recs {
		if rec != nil {
			positions = append(positions, i)
			valid = append(valid, *rec)
		}
	}

	runID, items := a.ingest.IngestBatch(cmd.Context(), valid)

	rows := make([][]string, len(envs))
	for _, b := range bad {
		rows[b.index] = []string{strconv.Itoa(b.index), envs[b.index].Title, "invalid", "", "", b.err.Error()}
	}
	failed := len(bad)
	for _, item := range items {
		i := positions[item.Index]
		row := []string{strconv.Itoa(i), envs[i].Title, "", "", "", ""}
		if item.Err != nil {
			failed++
			row[2] = "failed"
			row[5] = item.Err.Error()
		} else {
			row[2] = string(item.Result.Action)
			row[3] = strconv.FormatInt(item.Result.Work.ID, 10)
			row[4] = strconv.FormatFloat(item.Result.Score, 'f', 3, 64)
			if len(item.Result.Partial) > 0 {
				row[5] = item.Result.Partial[0].Error()
			}
		}
		rows[i] = row
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Title", "Action", "Work", "Score", "Note"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	))
	fmt.Fprintf(out, "run %s: %d records, %d failed\n", runID, len(envs), failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d records failed", failed, len(envs))
	}
	return nil
}

func stageRecords(cmd *cobra.Command, a *app, envs []catalog.Envelope) error {
	recs, bad := decodeRecords(envs)

	rows := make([][]string, len(envs))
	for _, b := range bad {
		rows[b.index] = []string{strconv.Itoa(b.index), envs[b.index].Title, "", b.err.Error()}
	}
	failed := len(bad)
	for i, rec := range recs {
		if rec == nil {
			continue
		}
		src, err := a.source.Stage(cmd.Context(), *rec)
		if err != nil {
			failed++
			rows[i] = []string{strconv.Itoa(i), rec.Title, "", err.Error()}
			continue
		}
		rows[i] = []string{strconv.Itoa(i), rec.Title, strconv.FormatInt(src.ID, 10), src.Key()}
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"#", "Title", "Source", "Key"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
	))
	if failed > 0 {
		return fmt.Errorf("%d of %d records failed", failed, len(envs))
	}
	return nil
}

// decodeRecords converts envelopes, leaving nil at positions that failed.
func decodeRecords(envs []catalog.Envelope) ([]*domain.PlatformRecord, []envelopeError) {
	recs := make([]*domain.PlatformRecord, len(envs))
	var bad []envelopeError
	for i, env := range envs {
		rec, err := domain.RecordFromEnvelope(env)
		if err != nil {
			bad = append(bad, envelopeError{index: i, err: err})
			continue
		}
		recs[i] = &rec
	}
	return recs, bad
}
