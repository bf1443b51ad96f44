package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"boardr/internal/printer"
	"boardr/internal/render"
)

func newExportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render projects to files",
	}
	cmd.AddCommand(newExportPNGCmd(app))
	return cmd
}

func newExportPNGCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "png <project> <file>",
		Short: "Render a project's board to a PNG image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.openStore(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			meta, err := app.resolve(cmd, p, args[0])
			if err != nil {
				return err
			}
			_, doc, err := p.Load(cmd.Context(), meta.ID)
			if err != nil {
				return app.fail(cmd, "Could not load "+meta.Name, err.Error())
			}
			if err := render.PNG(doc, args[1]); err != nil {
				if errors.Is(err, render.ErrEmptyBoard) {
					return app.fail(cmd, meta.Name+" has nothing to export", "The board has no items.")
				}
				return app.fail(cmd, "Could not render "+meta.Name, err.Error())
			}
			printer.Success(cmd.OutOrStdout(), "Exported %s to %s", meta.Name, args[1])
			return nil
		},
	}
}
