// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package show contains the show sub-command, which renders a saved run report.
package show

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/TylerBrock/colorjson"
	"github.com/matt-FFFFFF/cmdscript/internal/batch"
	"github.com/matt-FFFFFF/cmdscript/internal/color"
	"github.com/matt-FFFFFF/cmdscript/internal/script"
	"github.com/urfave/cli/v3"
)

const (
	fileArg            = "file"
	tableFlag          = "table"
	jsonFlag           = "json"
	successDetailsFlag = "success-details"
	argsFlag           = "args"
	jsonIndent         = 2
)

var (
	// ErrConflictingFormats is returned when more than one output format is requested.
	ErrConflictingFormats = errors.New("--table and --json cannot be used together")
	// ErrWriteResults is returned when the report cannot be written.
	ErrWriteResults = errors.New("failed to write report")
)

// ShowCmd is the command that shows a report saved by run --out.
var ShowCmd = &cli.Command{
	Name:        "show",
	Usage:       "Show a report saved with run --out",
	Description: "Show a previously saved run report. The format is chosen by the file extension, as for run --out.",
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:      fileArg,
			UsageText: "REPORTFILE",
			Config: cli.StringConfig{
				TrimSpace: true,
			},
		},
	},
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  tableFlag,
			Usage: "Render the report as a table",
		},
		&cli.BoolFlag{
			Name:  jsonFlag,
			Usage: "Render the report as JSON",
		},
		&cli.BoolFlag{
			Name:    successDetailsFlag,
			Aliases: []string{"success"},
			Usage:   "Include details of successful lines in the text output",
		},
		&cli.BoolFlag{
			Name:  argsFlag,
			Usage: "Include the argument vector of each line in the text output",
		},
	},
	Action: func(_ context.Context, cmd *cli.Command) error {
		name := cmd.StringArg(fileArg)
		if name == "" {
			return cli.Exit("Please provide a report file to show", batch.ExitMissingArgument)
		}

		report, err := batch.LoadReport(script.FsFactory(), name)
		if err != nil {
			return cli.Exit(err.Error(), batch.ExitFailure)
		}

		var f format

		switch {
		case cmd.Bool(tableFlag) && cmd.Bool(jsonFlag):
			return cli.Exit(ErrConflictingFormats.Error(), batch.ExitFailure)
		case cmd.Bool(tableFlag):
			f = formatTable
		case cmd.Bool(jsonFlag):
			f = formatJSON
		}

		opts := &batch.OutputOptions{
			ShowSuccessDetails: cmd.Bool(successDetailsFlag),
			ShowArgs:           cmd.Bool(argsFlag),
		}

		if err := write(cmd.Writer, report, f, opts); err != nil {
			return cli.Exit(err.Error(), batch.ExitFailure)
		}

		return nil
	},
}

type format int

const (
	formatText format = iota
	formatTable
	formatJSON
)

func write(w io.Writer, report *batch.Report, f format, opts *batch.OutputOptions) error {
	switch f {
	case formatTable:
		return report.WriteTable(w)
	case formatJSON:
		return writeJSON(w, report, color.Enabled())
	default:
		return report.WriteText(w, opts)
	}
}

// writeJSON writes the report as indented JSON, coloured when colour is true.
func writeJSON(w io.Writer, report *batch.Report, colour bool) error {
	// Round trip through a generic value so colorjson sees maps and slices.
	raw, err := json.Marshal(report)
	if err != nil {
		return errors.Join(ErrWriteResults, err)
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return errors.Join(ErrWriteResults, err)
	}

	formatter := colorjson.NewFormatter()
	formatter.Indent = jsonIndent
	formatter.DisabledColor = !colour

	out, err := formatter.Marshal(obj)
	if err != nil {
		return errors.Join(ErrWriteResults, err)
	}

	if _, err := w.Write(append(out, '\n')); err != nil {
		return errors.Join(ErrWriteResults, err)
	}

	return nil
}
