package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alexanderramin/opstree/internal/app"
	"github.com/alexanderramin/opstree/internal/cli"
	"github.com/alexanderramin/opstree/internal/config"
	"github.com/alexanderramin/opstree/internal/db"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := config.DefaultPath()
	cfg, err := config.LoadFile(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	// stdout carries command output and the MCP stream, so logs go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	var opts []db.HandleOption
	if cfg.AuditSQL {
		opts = append(opts, db.WithAuditLogger(logger))
	}
	handle, err := db.OpenHandle(cfg.DBPath, opts...)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer handle.Close()

	a := &cli.App{
		Services:   app.New(handle, logger),
		Config:     cfg,
		ConfigPath: cfgPath,
		Logger:     logger,
		IsInteractive: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
	}

	return cli.NewRootCmd(a).Execute()
}
