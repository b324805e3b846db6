package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/dtx/internal/cel"
	"github.com/oakwood-commons/dtx/internal/formatter"
)

func newFunctionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "functions",
		Short: "List the CEL functions available to --where and table expressions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ev, err := cel.NewEvaluator()
			if err != nil {
				return err
			}
			fns := ev.Functions()

			out := cmd.OutOrStdout()
			format, _ := cmd.Flags().GetString("output")
			if format == "" || strings.EqualFold(format, formatter.OutputTable) {
				for _, fn := range fns {
					fmt.Fprintln(out, fn)
				}
				return nil
			}
			rows := make([][]any, len(fns))
			for i, fn := range fns {
				name, usage, _ := strings.Cut(fn, " - ")
				rows[i] = []any{strings.TrimSuffix(name, "()"), usage}
			}
			return formatter.WriteRecords(out, format, []string{"name", "usage"}, rows)
		},
	}
}
