package cli

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var errAborted = errors.New("aborted")

func huhConfirm(title string) (bool, error) {
	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Delete").
				Negative("Cancel").
				Value(&ok),
		),
	).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}

// confirmDelete gates a destructive command. --yes skips the prompt; without
// it a non-interactive session is refused.
func (a *App) confirmDelete(cmd *cobra.Command, yes bool, what string) error {
	if yes {
		return nil
	}
	if !a.IsInteractive() {
		return fmt.Errorf("refusing to delete %s without --yes in a non-interactive session", what)
	}
	ok, err := a.Confirm(fmt.Sprintf("Delete %s and everything beneath it?", what))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
		return errAborted
	}
	return nil
}
