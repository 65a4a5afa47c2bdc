// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main contains the cmdscript command-line interface (CLI).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/cmdscript"
	"github.com/matt-FFFFFF/cmdscript/cmd/cmdscript/check"
	"github.com/matt-FFFFFF/cmdscript/cmd/cmdscript/run"
	"github.com/matt-FFFFFF/cmdscript/cmd/cmdscript/show"
	"github.com/matt-FFFFFF/cmdscript/internal/ctxlog"
	"github.com/matt-FFFFFF/cmdscript/internal/signalbroker"
	"github.com/urfave/cli/v3"
)

// rootCmd is the root command for the CLI.
var rootCmd = &cli.Command{
	Commands: []*cli.Command{
		run.RunCmd,
		check.CheckCmd,
		show.ShowCmd,
	},
	Writer:    os.Stdout,
	ErrWriter: os.Stderr,
	Name:      "cmdscript",
	Description: `cmdscript runs a script of command lines, one process per line, in file order.
A failing command is reported and the run carries on with the next line.
Blank lines and lines starting with # are ignored, and arguments containing
spaces are wrapped in double quotes.`,
	Usage:     "cmdscript run --file commands.txt",
	Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
	Authors: []any{
		"Matt White (matt-FFFFFF)",
	},
	EnableShellCompletion: true,
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)
	defer cancel()

	sigCh := signalbroker.New(ctx)

	go signalbroker.Watch(ctx, sigCh, cancel)

	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", cmdscript.Version, cmdscript.Commit)

	// Exit codes other than 0 and 1 are returned as cli.ExitCoder errors and handled by the framework.
	if err := rootCmd.Run(ctx, os.Args); err != nil {
		ctxlog.Error(ctx, "command execution failed", "error", err)
		os.Exit(1)
	}

	ctxlog.Debug(ctx, "command completed")
}
