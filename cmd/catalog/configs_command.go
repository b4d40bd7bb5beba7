package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/alldopamine/catalog/internal/domain"
)

func newConfigsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "configs",
		Short: "Manage integration configs",
	}
	cmd.AddCommand(newConfigsListCommand(ctx))
	cmd.AddCommand(newConfigsCreateCommand(ctx))
	return cmd
}

func newConfigsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list <domain>",
		Short: "List active integration configs of a domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := domain.ParseDomain(args[0])
			if err != nil {
				return err
			}
			return ctx.withApp(cmd.Context(), func(a *app) error {
				configs, err := a.configs.ListActive(cmd.Context(), d)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(configs))
				for _, c := range configs {
					rows = append(rows, []string{
						strconv.FormatInt(c.ID, 10),
						c.Name,
						strconv.Itoa(len(c.FieldMappings)),
						strconv.Itoa(len(c.Calculations)),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Name", "Mappings", "Calculations"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignRight},
				))
				return nil
			})
		},
	}
}

func newConfigsCreateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "create <file>",
		Short: "Create an integration config from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var cfg domain.IntegrationConfig
			if err := json.Unmarshal(raw, &cfg); err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}
			return ctx.withApp(cmd.Context(), func(a *app) error {
				created, err := a.configs.Create(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created config %d (%s)\n", created.ID, created.Name)
				return nil
			})
		},
	}
}
