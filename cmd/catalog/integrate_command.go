package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newIntegrateCommand(ctx *commandContext) *cobra.Command {
	var configID int64
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "integrate <source-id>...",
		Short: "Build one work from staged source records",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid source id %q", arg)
				}
				ids = append(ids, id)
			}

			return ctx.withApp(cmd.Context(), func(a *app) error {
				result, err := a.integration.Integrate(cmd.Context(), configID, ids)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(result)
				}

				rows := make([][]string, 0, len(result.Report.AppliedRules))
				for _, rule := range result.Report.AppliedRules {
					rows = append(rows, []string{rule.TargetField, rule.SourceKey, rule.SourceField, strconv.Itoa(rule.Priority)})
				}
				fmt.Fprintf(out, "work %d: %s\n", result.Work.ID, result.Work.Title)
				fmt.Fprintln(out, renderTable(
					[]string{"Field", "Source", "Source field", "Priority"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
				))
				for _, w := range result.Report.Warnings {
					fmt.Fprintln(out, "warning:", w)
				}
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&configID, "config-id", 0, "Integration config to apply")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	cmd.MarkFlagRequired("config-id")
	return cmd
}
