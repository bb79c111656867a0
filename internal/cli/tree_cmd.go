package cli

import (
	"encoding/json"
	"fmt"

	"github.com/alexanderramin/opstree/internal/cli/formatter"
	"github.com/alexanderramin/opstree/internal/domain"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// queryFlags binds the tree filter flags shared by read commands.
type queryFlags struct {
	keyword      string
	statuses     []string
	assignees    []string
	includeEmpty bool
	asJSON       bool
}

func (f *queryFlags) bind(fs *pflag.FlagSet) {
	fs.StringVarP(&f.keyword, "query", "q", "", "Keyword matched against names, statuses and assignees")
	fs.StringSliceVar(&f.statuses, "status", nil, "Status ids or labels to keep (repeatable, comma-separated)")
	fs.StringSliceVar(&f.assignees, "assignee", nil, "User ids or names to keep (repeatable, comma-separated)")
	fs.BoolVar(&f.includeEmpty, "include-empty", false, "Also list projects and products without matching tasks")
	fs.BoolVar(&f.asJSON, "json", false, "Print rows as JSON")
}

func (f *queryFlags) query() domain.TreeQuery {
	return domain.TreeQuery{
		Keyword:      f.keyword,
		Statuses:     domain.ParseFilterValues(f.statuses),
		Assignees:    domain.ParseFilterValues(f.assignees),
		IncludeEmpty: f.includeEmpty,
	}
}

// fullTree is the query used to show the result of a mutation.
var fullTree = domain.TreeQuery{IncludeEmpty: true}

func newTreeCmd(a *App) *cobra.Command {
	var flags queryFlags

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show the project/product/task tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.Tree.GetTree(cmd.Context(), flags.query())
			if err != nil {
				return err
			}
			if flags.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			return a.printTree(cmd, res)
		},
	}
	flags.bind(cmd.Flags())
	return cmd
}

// printTree renders res with assignee names resolved from the user list.
func (a *App) printTree(cmd *cobra.Command, res *domain.TreeResult) error {
	names := map[int64]string{}
	users, err := a.Users.List(cmd.Context())
	if err != nil {
		return err
	}
	for _, u := range users {
		names[u.ID] = u.Name
	}
	fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTree(res, names))
	return nil
}
