// Package cli implements the opstree command line.
package cli

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/alexanderramin/opstree/internal/app"
	"github.com/alexanderramin/opstree/internal/config"
	"github.com/spf13/cobra"
)

// App holds everything CLI commands need. Services are wired by main
// before the root command runs.
type App struct {
	*app.Services

	Config     config.Config
	ConfigPath string
	Logger     *slog.Logger

	// IsInteractive reports whether stdin is a terminal. Destructive
	// commands prompt only when it returns true.
	IsInteractive func() bool
	// Confirm asks a yes/no question. Defaults to a huh confirm form.
	Confirm func(title string) (bool, error)
	// Now is the clock used for relative timestamps.
	Now func() time.Time
}

// NewRootCmd creates the top-level "opstree" command and registers all
// subcommands against the provided App.
func NewRootCmd(a *App) *cobra.Command {
	if a.Now == nil {
		a.Now = time.Now
	}
	if a.Confirm == nil {
		a.Confirm = huhConfirm
	}
	if a.IsInteractive == nil {
		a.IsInteractive = func() bool { return false }
	}
	if a.Logger == nil {
		a.Logger = slog.Default()
	}

	root := &cobra.Command{
		Use:           "opstree",
		Short:         "Project, product and task tree manager",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newTreeCmd(a),
		newProjectCmd(a),
		newProductCmd(a),
		newTaskCmd(a),
		newStepCmd(a),
		newStatusCmd(a),
		newUserCmd(a),
		newImportCmd(a),
		newServeCmd(a),
		newMCPCmd(a),
		newConfigCmd(a),
	)
	return root
}

// parseID parses a positional row id.
func parseID(what, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, raw)
	}
	return id, nil
}
