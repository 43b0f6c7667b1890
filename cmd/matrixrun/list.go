// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/matrixrun/matrixrun/internal/matrix"

	"github.com/spf13/cobra"
)

func newListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every target tag",
		Long:  "List every target tag in run order, one per line. Same as 'matrixrun run --list-targets'.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeRun(cmd.Context(), app, runRequest{
				Selection: matrix.Selection{ListOnly: true},
			})
		},
	}
}
