// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run contains the run sub-command.
package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/matt-FFFFFF/cmdscript"
	"github.com/matt-FFFFFF/cmdscript/internal/batch"
	"github.com/matt-FFFFFF/cmdscript/internal/ctxlog"
	"github.com/matt-FFFFFF/cmdscript/internal/executor"
	"github.com/matt-FFFFFF/cmdscript/internal/script"
	"github.com/matt-FFFFFF/cmdscript/internal/sink"
	"github.com/matt-FFFFFF/cmdscript/internal/source"
	"github.com/urfave/cli/v3"
)

const (
	fileFlag              = "file"
	fileEnvVar            = "CMDSCRIPT_FILE"
	noBannerFlag          = "no-banner"
	suppressHeartbeatFlag = "suppress-heartbeat"
	heartbeatIntervalFlag = "heartbeat-interval"
	timeoutFlag           = "timeout"
	cwdFlag               = "cwd"
	envFlag               = "env"
	successExitCodesFlag  = "success-exit-codes"
	outFlag               = "out"
	colourFlag            = "colour"
)

// ErrInvalidEnv is returned when an --env value is not KEY=VALUE.
var ErrInvalidEnv = errors.New("environment variable must be in KEY=VALUE form")

// RunCmd is the command that runs a command script.
var RunCmd = &cli.Command{
	Name:  "run",
	Usage: "Run every command line of a script in order",
	Description: `Run the commands in a script file, one process per line, in file order.
A command that fails is reported and the run carries on with the next line, so the exit
code only reflects whether the script could be loaded:

  0  the script was run (commands may have failed)
  1  unexpected error, e.g. the report could not be written
  2  no script given
  3  the script does not exist, is not a regular file or cannot be opened
  4  the script could not be read
  5  the script has no command lines

The script may also be a go-getter URL, which is downloaded before it is run.
See https://github.com/hashicorp/go-getter.`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:      fileFlag,
			Aliases:   []string{"f"},
			Usage:     "The script to run, a local path or a go-getter URL",
			TakesFile: true,
			OnlyOnce:  true,
			Sources:   cli.EnvVars(fileEnvVar),
		},
		&cli.BoolFlag{
			Name:     noBannerFlag,
			Usage:    "Do not print the start banner",
			OnlyOnce: true,
		},
		&cli.BoolFlag{
			Name:     suppressHeartbeatFlag,
			Usage:    "Do not report commands that are still running",
			OnlyOnce: true,
		},
		&cli.DurationFlag{
			Name:     heartbeatIntervalFlag,
			Usage:    "How often a still-running command is reported",
			Value:    executor.DefaultHeartbeatInterval,
			OnlyOnce: true,
		},
		&cli.DurationFlag{
			Name:     timeoutFlag,
			Usage:    "Kill a command that runs longer than this, 0 means no limit",
			OnlyOnce: true,
		},
		&cli.StringFlag{
			Name:      cwdFlag,
			Usage:     "Working directory for the commands",
			TakesFile: true,
			OnlyOnce:  true,
		},
		&cli.StringSliceFlag{
			Name:  envFlag,
			Usage: "Set an environment variable for the commands, KEY=VALUE. May be repeated",
		},
		&cli.IntSliceFlag{
			Name:  successExitCodesFlag,
			Usage: "Exit codes that count as success. Defaults to 0",
		},
		&cli.StringFlag{
			Name:      outFlag,
			Usage:     "Save the run report to this file, YAML for .yaml and .yml, binary otherwise",
			TakesFile: true,
			OnlyOnce:  true,
		},
		&cli.BoolFlag{
			Name:     colourFlag,
			Usage:    "Colour the progress output. Detected from the terminal when not set",
			OnlyOnce: true,
		},
	},
	Action: actionFunc,
}

// options are the settings of one run, taken from the command line.
type options struct {
	source            string
	noBanner          bool
	suppressHeartbeat bool
	heartbeatInterval time.Duration
	timeout           time.Duration
	cwd               string
	env               []string
	successExitCodes  []int
	out               string
	colour            *bool
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	ctxlog.Debug(ctx, "Running run command", "command", cmd.Name)

	opts := options{
		source:            strings.TrimSpace(cmd.String(fileFlag)),
		noBanner:          cmd.Bool(noBannerFlag),
		suppressHeartbeat: cmd.Bool(suppressHeartbeatFlag),
		heartbeatInterval: cmd.Duration(heartbeatIntervalFlag),
		timeout:           cmd.Duration(timeoutFlag),
		cwd:               cmd.String(cwdFlag),
		env:               cmd.StringSlice(envFlag),
		successExitCodes:  cmd.IntSlice(successExitCodesFlag),
		out:               cmd.String(outFlag),
	}

	if cmd.IsSet(colourFlag) {
		c := cmd.Bool(colourFlag)
		opts.colour = &c
	}

	if code := runScript(ctx, cmd.Writer, opts); code != batch.ExitOK {
		return cli.Exit("", code)
	}

	return nil
}

// runScript runs the script described by opts, writing progress to w, and returns the exit code.
func runScript(ctx context.Context, w io.Writer, opts options) int {
	env, err := parseEnv(opts.env)
	if err != nil {
		ctxlog.Error(ctx, "invalid --env value", "error", err)
		return batch.ExitFailure
	}

	path, cleanup, err := source.Resolve(ctx, opts.source)
	defer cleanup()

	if err != nil {
		ctxlog.Error(ctx, "cannot get script", "source", opts.source, "error", err)
		return batch.ExitCode(err)
	}

	fs := script.FsFactory()

	// Load before the banner so nothing reaches the progress output for a script that cannot be loaded.
	b, err := script.LoadFs(fs, path)
	if err != nil {
		ctxlog.Error(ctx, "cannot run script", "script", opts.source, "error", err)
		return batch.ExitCode(err)
	}

	var sinkOpts []sink.Option

	switch {
	case opts.colour == nil:
		sinkOpts = append(sinkOpts, sink.WithAutoColour())
	case *opts.colour:
		sinkOpts = append(sinkOpts, sink.WithColour())
	}

	out := sink.NewWriter(w, sinkOpts...)

	if !opts.noBanner {
		out.WriteLine(sink.KindInfo, fmt.Sprintf("cmdscript %s: running %s", cmdscript.Version, opts.source))
		out.WriteLine(sink.KindInfo, "")
	}

	exec := &executor.OSExecutor{
		Sink:              out,
		Cwd:               opts.cwd,
		Env:               env,
		Timeout:           opts.timeout,
		SuccessExitCodes:  opts.successExitCodes,
		Heartbeat:         executor.Heartbeat,
		HeartbeatInterval: opts.heartbeatInterval,
	}

	var runOpts []batch.Option
	if opts.suppressHeartbeat {
		runOpts = append(runOpts, batch.WithRestoreFlag(executor.Heartbeat, false))
	}

	report, err := batch.New(exec, out, runOpts...).RunBatch(ctx, b)
	if err != nil {
		ctxlog.Error(ctx, "cannot run script", "script", opts.source, "error", err)
		return batch.ExitCode(err)
	}

	if err := report.Err(); err != nil {
		ctxlog.Warn(ctx, "some commands failed, see above for details", "failed", len(report.Failed()))
	}

	if opts.out != "" {
		if err := batch.SaveReport(fs, opts.out, report); err != nil {
			ctxlog.Error(ctx, "cannot save report", "file", opts.out, "error", err)
			return batch.ExitFailure
		}

		ctxlog.Info(ctx, "report written", "file", opts.out)
	}

	if err := ctx.Err(); err != nil {
		ctxlog.Error(ctx, "run interrupted", "error", err)
		return batch.ExitFailure
	}

	return batch.ExitOK
}

// parseEnv turns KEY=VALUE pairs into a map.
func parseEnv(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	env := make(map[string]string, len(pairs))

	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidEnv, p)
		}

		env[k] = v
	}

	return env, nil
}
