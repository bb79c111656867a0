package cli

import (
	"fmt"

	"github.com/alexanderramin/opstree/internal/cli/formatter"
	"github.com/alexanderramin/opstree/internal/domain"
	"github.com/alexanderramin/opstree/internal/service"
	"github.com/spf13/cobra"
)

func newStepCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step",
		Short: "Record and review task progress steps",
	}
	cmd.AddCommand(
		newStepListCmd(a),
		newStepAddCmd(a),
		newStepStatusCmd(a),
	)
	return cmd
}

func newStepListCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list TASK_ID",
		Short: "List a task's steps, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID("task", args[0])
			if err != nil {
				return err
			}
			steps, err := a.Steps.ListByTask(cmd.Context(), taskID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTaskSteps(steps, a.Now()))
			return nil
		},
	}
}

func newStepAddCmd(a *App) *cobra.Command {
	var status string
	var assignee int64

	cmd := &cobra.Command{
		Use:   "add TASK_ID CONTENT",
		Short: "Append a step to a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID("task", args[0])
			if err != nil {
				return err
			}
			in := service.AddTaskStepInput{
				TaskID:    taskID,
				Content:   args[1],
				Status:    domain.ParseStatusRef(status),
				CreatedBy: a.Config.DefaultOwner,
			}
			if cmd.Flags().Changed("assignee") {
				in.AssigneeID = &assignee
			}
			step, err := a.Steps.Add(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added step %d to task %d [%s]\n", step.ID, step.TaskID, step.StatusName)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Status id or label")
	cmd.Flags().Int64Var(&assignee, "assignee", 0, "Assigned user id")
	return cmd
}

func newStepStatusCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status STEP_ID STATUS",
		Short: "Change a step's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("step", args[0])
			if err != nil {
				return err
			}
			if err := a.Steps.UpdateStatus(cmd.Context(), id, domain.ParseStatusRef(args[1])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Step %d is now %s\n", id, args[1])
			return nil
		},
	}
}
