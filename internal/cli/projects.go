package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"boardr/internal/printer"
	"boardr/internal/store"
)

func newProjectsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Project commands",
	}
	cmd.AddCommand(newProjectsListCmd(app))
	cmd.AddCommand(newProjectsCreateCmd(app))
	cmd.AddCommand(newProjectsDeleteCmd(app))
	cmd.AddCommand(newProjectsExportCmd(app))
	cmd.AddCommand(newProjectsImportCmd(app))
	return cmd
}

func newProjectsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.openStore(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			list, err := p.List(cmd.Context())
			if err != nil {
				return app.fail(cmd, "Could not list projects", err.Error())
			}
			if len(list) == 0 {
				printer.Warning(cmd.OutOrStdout(), "No projects yet. Create one with 'boardr projects create --name NAME'.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tUPDATED")
			for _, m := range list {
				name := m.Name
				if m.Recovered {
					name += " (recovered)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", m.ID, name, m.UpdatedAt.Local().Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}

func newProjectsCreateCmd(app *App) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an empty project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name = strings.TrimSpace(name)
			if name == "" {
				return app.fail(cmd, "Project name is empty", "", "Pass a name with --name.")
			}
			p, err := app.openStore(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			meta, err := p.Create(cmd.Context(), name)
			if err != nil {
				return app.fail(cmd, "Could not create project", err.Error())
			}
			printer.Success(cmd.OutOrStdout(), "Created project %s (%s)", meta.Name, meta.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Project name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newProjectsDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <project>",
		Short: "Delete a project and its board",
		Args:  cobra.ExactArgs(1),
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
			if err := p.Delete(cmd.Context(), meta.ID); err != nil {
				return app.fail(cmd, "Could not delete "+meta.Name, err.Error())
			}
			printer.Success(cmd.OutOrStdout(), "Deleted project %s", meta.Name)
			return nil
		},
	}
}

func newProjectsExportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "export <project> <file>",
		Short: "Write a project bundle (.json, .yaml or .yml)",
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
			data, err := store.Export(cmd.Context(), p, meta.ID, store.FormatForPath(args[1]))
			if err != nil {
				return app.fail(cmd, "Could not export "+meta.Name, err.Error())
			}
			if err := os.WriteFile(args[1], data, 0o644); err != nil {
				return app.fail(cmd, "Could not write bundle", err.Error())
			}
			printer.Success(cmd.OutOrStdout(), "Exported %s to %s", meta.Name, args[1])
			return nil
		},
	}
}

func newProjectsImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Create a project from a bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return app.fail(cmd, "Could not read bundle", err.Error())
			}
			p, err := app.openStore(cmd)
			if err != nil {
				return err
			}
			defer p.Close()

			meta, err := store.Import(cmd.Context(), p, data, store.FormatForPath(args[0]))
			if err != nil {
				return app.fail(cmd, "Could not import "+args[0], err.Error(),
					"Check that the file is a bundle written by 'boardr projects export'.")
			}
			printer.Success(cmd.OutOrStdout(), "Imported %s (%s)", meta.Name, meta.ID)
			return nil
		},
	}
}
