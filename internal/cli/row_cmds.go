package cli

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/opstree/internal/domain"
	"github.com/alexanderramin/opstree/internal/service"
	"github.com/spf13/cobra"
)

func newProjectCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}
	cmd.AddCommand(
		newProjectAddCmd(a),
		newRenameCmd(a, domain.RowProject),
		newRemoveCmd(a, domain.RowProject),
	)
	return cmd
}

func newProjectAddCmd(a *App) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.Tree.CreateProject(cmd.Context(), service.CreateProjectInput{
				Name:    args[0],
				OwnerID: domain.CoalesceStr(owner, a.Config.DefaultOwner),
				Query:   fullTree,
			})
			if err != nil {
				return err
			}
			return a.printTree(cmd, res)
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Owner recorded on the project (defaults to default_owner)")
	return cmd
}

func newProductCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Manage products",
	}
	cmd.AddCommand(
		newProductAddCmd(a),
		newRenameCmd(a, domain.RowProduct),
		newRemoveCmd(a, domain.RowProduct),
	)
	return cmd
}

func newProductAddCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add PROJECT_ID NAME",
		Short: "Create a product under a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseID("project", args[0])
			if err != nil {
				return err
			}
			res, err := a.Tree.CreateProduct(cmd.Context(), service.CreateProductInput{
				ProjectID: projectID,
				Name:      args[1],
				CreatedBy: a.Config.DefaultOwner,
				Query:     fullTree,
			})
			if err != nil {
				return err
			}
			return a.printTree(cmd, res)
		},
	}
}

func newTaskCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}
	cmd.AddCommand(
		newTaskAddCmd(a),
		newTaskUpdateCmd(a),
		newRemoveCmd(a, domain.RowTask),
	)
	return cmd
}

func newTaskAddCmd(a *App) *cobra.Command {
	var status string
	var assignee int64

	cmd := &cobra.Command{
		Use:   "add PRODUCT_ID TITLE",
		Short: "Create a task under a product",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			productID, err := parseID("product", args[0])
			if err != nil {
				return err
			}
			in := service.CreateTaskInput{
				ProductID: productID,
				Title:     args[1],
				Status:    domain.ParseStatusRef(status),
				CreatedBy: a.Config.DefaultOwner,
				Query:     fullTree,
			}
			if cmd.Flags().Changed("assignee") {
				in.AssigneeID = &assignee
			}
			res, err := a.Tree.CreateTask(cmd.Context(), in)
			if err != nil {
				return err
			}
			return a.printTree(cmd, res)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Status id or label (created if unknown)")
	cmd.Flags().Int64Var(&assignee, "assignee", 0, "Assigned user id")
	return cmd
}

func newTaskUpdateCmd(a *App) *cobra.Command {
	var title, status string
	var assignee int64
	var unassign bool

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change a task's title, status or assignee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("task", args[0])
			if err != nil {
				return err
			}
			in := service.UpdateRowInput{RowType: domain.RowTask, ID: id, Query: fullTree}
			flags := cmd.Flags()
			if flags.Changed("title") {
				in.Name = domain.Some(title)
			}
			if flags.Changed("status") {
				in.Status = domain.Some(domain.ParseStatusRef(status))
			}
			switch {
			case unassign && flags.Changed("assignee"):
				return fmt.Errorf("--assignee and --unassign are mutually exclusive")
			case unassign:
				in.Assignee = domain.Some[*int64](nil)
			case flags.Changed("assignee"):
				in.Assignee = domain.Some(&assignee)
			}
			res, err := a.Tree.UpdateRow(cmd.Context(), in)
			if err != nil {
				return err
			}
			return a.printTree(cmd, res)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&status, "status", "", "New status id or label; empty resets to the default")
	cmd.Flags().Int64Var(&assignee, "assignee", 0, "New assignee user id")
	cmd.Flags().BoolVar(&unassign, "unassign", false, "Clear the assignee")
	return cmd
}

// newRenameCmd renames a project, product or task.
func newRenameCmd(a *App, rowType domain.RowType) *cobra.Command {
	return &cobra.Command{
		Use:   "rename ID NAME",
		Short: fmt.Sprintf("Rename a %s", rowType),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(string(rowType), args[0])
			if err != nil {
				return err
			}
			res, err := a.Tree.UpdateRow(cmd.Context(), service.UpdateRowInput{
				RowType: rowType,
				ID:      id,
				Name:    domain.Some(args[1]),
				Query:   fullTree,
			})
			if err != nil {
				return err
			}
			return a.printTree(cmd, res)
		},
	}
}

// newRemoveCmd deletes a row together with its descendants.
func newRemoveCmd(a *App, rowType domain.RowType) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"remove"},
		Short:   fmt.Sprintf("Delete a %s and everything beneath it", rowType),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(string(rowType), args[0])
			if err != nil {
				return err
			}
			if err := a.confirmDelete(cmd, yes, fmt.Sprintf("%s %d", rowType, id)); err != nil {
				if errors.Is(err, errAborted) {
					return nil
				}
				return err
			}
			res, err := a.Tree.DeleteRow(cmd.Context(), service.DeleteRowInput{
				RowType: rowType,
				ID:      id,
				Query:   fullTree,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %d\n", rowType, id)
			return a.printTree(cmd, res)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
