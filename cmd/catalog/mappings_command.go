package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alldopamine/catalog/internal/domain"
)

func newMappingsCommand(ctx *commandContext) *cobra.Command {
	var platform string
	var exclusive bool

	cmd := &cobra.Command{
		Use:   "mappings <domain>",
		Short: "List platform mappings; without --platform lists multi-platform works",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := domain.ParseDomain(args[0])
			if err != nil {
				return err
			}

			return ctx.withApp(cmd.Context(), func(a *app) error {
				var mappings []*domain.PlatformMapping
				switch {
				case platform == "":
					mappings, err = a.mapping.FindMultiPlatform(cmd.Context(), d)
				case exclusive:
					mappings, err = a.mapping.FindExclusiveTo(cmd.Context(), d, platform)
				default:
					mappings, err = a.mapping.FindAvailableOn(cmd.Context(), d, platform)
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderMappings(mappings))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&platform, "platform", "p", "", "Only works available on this platform")
	cmd.Flags().BoolVar(&exclusive, "exclusive", false, "Only works available on no other platform")
	return cmd
}

func renderMappings(mappings []*domain.PlatformMapping) string {
	rows := make([][]string, 0, len(mappings))
	for _, m := range mappings {
		ids := make([]string, 0, m.Count())
		for _, slot := range m.Slots() {
			id, _ := m.Get(slot)
			ids = append(ids, fmt.Sprintf("%s:%d", slot, id))
		}
		rows = append(rows, []string{strconv.FormatInt(m.WorkID, 10), strings.Join(ids, " ")})
	}
	return renderTable([]string{"Work", "Platforms"}, rows, []columnAlignment{alignRight, alignLeft})
}
