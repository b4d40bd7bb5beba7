package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alldopamine/catalog/internal/domain"
)

func newOrphansCommand(ctx *commandContext) *cobra.Command {
	var cleanup bool

	cmd := &cobra.Command{
		Use:   "orphans <domain>",
		Short: "Count works without any platform mapping, or delete them with --cleanup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := domain.ParseDomain(args[0])
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			run := func(a *app) error {
				out := cmd.OutOrStdout()
				if !cleanup {
					n, err := a.maintenance.CountOrphans(cmd.Context(), d)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%s: %d orphaned works\n", d, n)
					return nil
				}
				n, err := a.maintenance.CleanupOrphans(cmd.Context(), d)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: deleted %d orphaned works\n", d, n)
				return nil
			}

			if !cleanup {
				return ctx.withApp(cmd.Context(), run)
			}
			return withBatchLock(cfg.Batch.LockFile, func() error {
				return ctx.withApp(cmd.Context(), run)
			})
		},
	}
	cmd.Flags().BoolVar(&cleanup, "cleanup", false, "Delete the orphaned works")
	return cmd
}
