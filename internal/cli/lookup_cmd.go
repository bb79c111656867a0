package cli

import (
	"fmt"

	"github.com/alexanderramin/opstree/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newStatusCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Manage status labels",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List statuses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := a.Statuses.List(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatStatusList(statuses))
			return nil
		},
	}

	var color string
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.Statuses.Create(cmd.Context(), args[0], color)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created status %s (%d)\n", s.Name, s.ID)
			return nil
		},
	}
	add.Flags().StringVar(&color, "color", "", "Hex color, e.g. #9ca3af")

	cmd.AddCommand(list, add)
	return cmd
}

func newUserCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage assignable users",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := a.Users.List(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatUserList(users))
			return nil
		},
	}

	var email string
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.Users.Create(cmd.Context(), args[0], email)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%d)\n", u.Name, u.ID)
			return nil
		},
	}
	add.Flags().StringVar(&email, "email", "", "Email address")

	cmd.AddCommand(list, add)
	return cmd
}
