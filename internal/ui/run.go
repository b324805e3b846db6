package ui

import (
	"context"

	tea "charm.land/bubbletea/v2"

	"github.com/oakwood-commons/dtx/pkg/grid"
)

// Run starts the browser over tbl and blocks until the user quits. Extra
// ProgramOptions (custom IO, for instance) are passed to tea.NewProgram.
func Run(ctx context.Context, tbl *grid.Table, opts Options, progOpts ...tea.ProgramOption) error {
	m := NewModel(ctx, tbl, opts)
	if opts.Width > 0 && opts.Height > 0 {
		progOpts = append(progOpts, tea.WithWindowSize(opts.Width, opts.Height))
	}
	progOpts = append(progOpts, tea.WithContext(ctx))
	_, err := tea.NewProgram(m, progOpts...).Run()
	return err
}
