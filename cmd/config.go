package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/dtx/internal/config"
)

func newConfigCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "config",
		Short: "Inspect table definitions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	c.AddCommand(
		&cobra.Command{
			Use:   "default",
			Short: "Print the built-in table definition",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				_, err := cmd.OutOrStdout().Write(config.DefaultYAML())
				return err
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the table definition file in use",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				path := runSettings(cmd).TablePath
				if path == "" {
					path = "(built-in defaults)"
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "validate [table.yaml]",
			Short: "Check a table definition",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				path := runSettings(cmd).TablePath
				if len(args) == 1 {
					path = args[0]
				}
				if path == "" {
					return usageErrorf("no table definition: pass a path or --table")
				}
				if _, err := config.Load(path); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
				return nil
			},
		},
	)
	return c
}
