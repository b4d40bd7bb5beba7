package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/alldopamine/catalog/internal/domain"
	"github.com/alldopamine/catalog/internal/usecase"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var duplicates bool

	cmd := &cobra.Command{
		Use:   "status [domain]",
		Short: "Show work and mapping counts per domain",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			domains := domain.Domains
			if len(args) == 1 {
				d, err := domain.ParseDomain(args[0])
				if err != nil {
					return err
				}
				domains = []domain.Domain{d}
			}

			return ctx.withApp(cmd.Context(), func(a *app) error {
				out := cmd.OutOrStdout()
				statuses := make([]*usecase.Status, 0, len(domains))
				for _, d := range domains {
					st, err := a.maintenance.Status(cmd.Context(), d)
					if err != nil {
						return err
					}
					statuses = append(statuses, st)
				}
				fmt.Fprintln(out, renderStatus(statuses))

				if !duplicates {
					return nil
				}
				for _, d := range domains {
					groups, err := a.maintenance.FindTitleDuplicates(cmd.Context(), d)
					if err != nil {
						return err
					}
					for _, g := range groups {
						ids := ""
						for i, w := range g.Works {
							if i > 0 {
								ids += ", "
							}
							ids += strconv.FormatInt(w.ID, 10)
						}
						fmt.Fprintf(out, "%s duplicate %q: works %s\n", d, g.NormalizedTitle, ids)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&duplicates, "duplicates", false, "Also list works sharing a normalized title")
	return cmd
}

func renderStatus(statuses []*usecase.Status) string {
	rows := make([][]string, 0, len(statuses))
	for _, st := range statuses {
		slots := ""
		for _, key := range st.Slots.Keys() {
			n, _ := st.Slots.Get(key)
			if slots != "" {
				slots += " "
			}
			slots += fmt.Sprintf("%s=%d", key, n)
		}
		rows = append(rows, []string{
			string(st.Domain),
			strconv.FormatInt(st.Works, 10),
			strconv.FormatInt(st.MappedWorks, 10),
			strconv.FormatInt(st.Orphans, 10),
			slots,
		})
	}
	return renderTable(
		[]string{"Domain", "Works", "Mapped", "Orphans", "Platforms"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft},
	)
}
