// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package batch

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/matt-FFFFFF/cmdscript/internal/argv"
	"github.com/matt-FFFFFF/cmdscript/internal/color"
)

// ErrWriteOutput is returned when a report cannot be rendered to the writer.
var ErrWriteOutput = errors.New("failed to write report output")

// OutputOptions controls what is included in the text output.
type OutputOptions struct {
	ShowSuccessDetails bool // Whether to show arguments and timings for successful lines
	ShowArgs           bool // Whether to show the argument vector of each line
}

// DefaultOutputOptions returns a default set of output options.
func DefaultOutputOptions() *OutputOptions {
	return &OutputOptions{}
}

// WriteText writes a human readable summary of the report.
func (r *Report) WriteText(w io.Writer, options *OutputOptions) error {
	if options == nil {
		options = DefaultOutputOptions()
	}

	sb := strings.Builder{}
	succeeded, failed := r.Counts()

	fmt.Fprintf(&sb, "%s %s\n", color.Colorize("Script:", color.Bold), r.Script)

	if !r.Started.IsZero() {
		fmt.Fprintf(&sb, "%s %s (%s)\n",
			color.Colorize("Started:", color.Bold), r.Started.Format("2006-01-02 15:04:05"), r.Duration().Round(time.Millisecond))
	}

	for _, l := range r.Results {
		writeLineResult(&sb, l, options)
	}

	fmt.Fprintf(&sb, "%d succeeded, %d failed\n", succeeded, failed)

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return errors.Join(ErrWriteOutput, err)
	}

	return nil
}

func writeLineResult(sb *strings.Builder, l *LineResult, options *OutputOptions) {
	var statusStr, labelPrefix string

	switch l.Status {
	case StatusFailed:
		statusStr = color.Colorize("✗", color.FgRed)
		labelPrefix = color.ControlString(color.Bold, color.FgRed)
	case StatusSuccess:
		statusStr = color.Colorize("✓", color.FgGreen)
		labelPrefix = color.ControlString(color.Bold, color.FgGreen)
	default:
		statusStr = color.Colorize("?", color.FgWhite)
	}

	fmt.Fprintf(sb, "%s %sline %d%s %s",
		statusStr, labelPrefix, l.Number, color.ControlString(color.Reset), l.Text)

	if l.ExitCode != 0 {
		fmt.Fprintf(sb, " (exit code: %d)", l.ExitCode)
	}

	sb.WriteString("\n")

	if l.Failed() {
		fmt.Fprintf(sb, "  %s %s\n", color.Colorize("➜ Error:", color.FgRed), l.Message)
	}

	if !l.Failed() && !options.ShowSuccessDetails {
		return
	}

	if options.ShowArgs {
		fmt.Fprintf(sb, "  ➜ Args: %s\n", argv.Join(l.Args))
	}

	if options.ShowSuccessDetails {
		fmt.Fprintf(sb, "  ➜ Duration: %s\n", l.Duration)
	}
}

// WriteTable renders the report as a bordered table.
func (r *Report) WriteTable(w io.Writer) error {
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	failedStyle := cellStyle.Foreground(lipgloss.Color("1"))

	rows := make([][]string, 0, len(r.Results))
	for _, l := range r.Results {
		rows = append(rows, []string{
			strconv.Itoa(l.Number),
			string(l.Status),
			strconv.Itoa(l.ExitCode),
			l.Duration.String(),
			l.Text,
			l.Message,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("LINE", "STATUS", "EXIT", "DURATION", "COMMAND", "MESSAGE").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row >= 0 && row < len(r.Results) && r.Results[row].Failed():
				return failedStyle
			default:
				return cellStyle
			}
		})

	if _, err := io.WriteString(w, t.Render()+"\n"); err != nil {
		return errors.Join(ErrWriteOutput, err)
	}

	return nil
}
