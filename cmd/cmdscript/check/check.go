// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package check contains the check sub-command, which loads a script without running it.
package check

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/matt-FFFFFF/cmdscript/internal/argv"
	"github.com/matt-FFFFFF/cmdscript/internal/batch"
	"github.com/matt-FFFFFF/cmdscript/internal/ctxlog"
	"github.com/matt-FFFFFF/cmdscript/internal/script"
	"github.com/matt-FFFFFF/cmdscript/internal/source"
	"github.com/urfave/cli/v3"
)

const (
	fileFlag   = "file"
	fileEnvVar = "CMDSCRIPT_FILE"
)

// CheckCmd is the command that validates a script and shows how each line is split.
var CheckCmd = &cli.Command{
	Name:  "check",
	Usage: "Load a script and show the arguments of each command line without running anything",
	Description: `Validate, load and split a script exactly as run would, then print each
command line with its argument vector. Exit codes are the same as for run.`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:      fileFlag,
			Aliases:   []string{"f"},
			Usage:     "The script to check, a local path or a go-getter URL",
			TakesFile: true,
			OnlyOnce:  true,
			Sources:   cli.EnvVars(fileEnvVar),
		},
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		if code := checkScript(ctx, cmd.Writer, strings.TrimSpace(cmd.String(fileFlag))); code != batch.ExitOK {
			return cli.Exit("", code)
		}

		return nil
	},
}

func checkScript(ctx context.Context, w io.Writer, src string) int {
	path, cleanup, err := source.Resolve(ctx, src)
	defer cleanup()

	if err != nil {
		ctxlog.Error(ctx, "cannot get script", "source", src, "error", err)
		return batch.ExitCode(err)
	}

	b, err := script.Load(path)
	if err != nil {
		ctxlog.Error(ctx, "cannot load script", "script", src, "error", err)
		return batch.ExitCode(err)
	}

	sb := strings.Builder{}

	for _, l := range b.Lines() {
		args := argv.Split(l.Text)
		fmt.Fprintf(&sb, "%4d: %s\n", l.Number, l.Text)

		for i, a := range args {
			fmt.Fprintf(&sb, "      [%d] %q\n", i, a)
		}
	}

	fmt.Fprintf(&sb, "%d command lines in %s\n", b.Len(), src)

	if _, err := io.WriteString(w, sb.String()); err != nil {
		ctxlog.Error(ctx, "cannot write output", "error", err)
		return batch.ExitFailure
	}

	return batch.ExitOK
}
