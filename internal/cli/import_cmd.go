package cli

import (
	"fmt"

	"github.com/alexanderramin/opstree/internal/importer"
	"github.com/alexanderramin/opstree/internal/service"
	"github.com/spf13/cobra"
)

func newImportCmd(a *App) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Create projects, products, tasks and steps from a JSON or TOML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := importer.LoadSchema(args[0])
			if err != nil {
				return err
			}
			res, err := a.Import.Import(cmd.Context(), schema, service.ImportOptions{
				DefaultOwner: a.Config.DefaultOwner,
				DryRun:       dryRun,
			})
			if err != nil {
				return err
			}
			c := res.Counts
			verb := "Imported"
			if dryRun {
				verb = "Would import"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d projects, %d products, %d tasks, %d steps\n",
				verb, c.Projects, c.Products, c.Tasks, c.Steps)
			if dryRun {
				return nil
			}
			tree, err := a.Tree.GetTree(cmd.Context(), fullTree)
			if err != nil {
				return err
			}
			return a.printTree(cmd, tree)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate and count without writing")
	return cmd
}
