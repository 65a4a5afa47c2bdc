// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/matt-FFFFFF/cmdscript/internal/argv"
	"github.com/matt-FFFFFF/cmdscript/internal/ctxlog"
	"github.com/matt-FFFFFF/cmdscript/internal/executor"
	"github.com/matt-FFFFFF/cmdscript/internal/scopedflag"
	"github.com/matt-FFFFFF/cmdscript/internal/script"
	"github.com/matt-FFFFFF/cmdscript/internal/sink"
	"github.com/spf13/afero"
)

const delimiterWidth = 60

// Runner executes one script. A Runner is single use: create a new one per run.
type Runner struct {
	executor executor.Executor
	sink     sink.Sink
	fs       afero.Fs

	flag      *scopedflag.Flag
	flagValue bool

	mu      sync.Mutex
	state   State
	current int // 1-based index of the executing line
}

// Option configures a Runner.
type Option func(*Runner)

// WithFs loads the script from fs instead of script.FsFactory().
func WithFs(fs afero.Fs) Option {
	return func(r *Runner) {
		r.fs = fs
	}
}

// WithRestoreFlag sets flag to value for the duration of the run.
// The previous value is restored when the run ends, however it ends.
func WithRestoreFlag(flag *scopedflag.Flag, value bool) Option {
	return func(r *Runner) {
		r.flag = flag
		r.flagValue = value
	}
}

// New creates a Runner that executes lines with exec and reports progress to s.
// A nil sink discards progress.
func New(exec executor.Executor, s sink.Sink, opts ...Option) *Runner {
	if s == nil {
		s = sink.Discard
	}

	r := &Runner{
		executor: exec,
		sink:     s,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// State returns the current state and, while executing, the 1-based index of the current line.
func (r *Runner) State() (State, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.state, r.current
}

// Run validates, loads and executes the script at scriptPath.
// The returned error is only ever a load error; failed commands are recorded in the Report.
func (r *Runner) Run(ctx context.Context, scriptPath string) (*Report, error) {
	if r.flag != nil {
		restore := r.flag.Override(r.flagValue)
		defer restore()
	}

	r.setState(ctx, StateValidating, 0)

	fs := r.fs
	if fs == nil {
		fs = script.FsFactory()
	}

	b, err := script.LoadFs(fs, scriptPath)
	if err != nil {
		r.setState(ctx, StateAborted, 0)
		ctxlog.Debug(ctx, "script load failed", "script", scriptPath, "error", err)

		return nil, err
	}

	return r.runBatch(ctx, b), nil
}

// RunBatch executes a script that was already loaded with script.Load or script.LoadFs,
// skipping validation. A nil or empty batch is an ErrEmptyScript load error.
func (r *Runner) RunBatch(ctx context.Context, b *script.Batch) (*Report, error) {
	if r.flag != nil {
		restore := r.flag.Override(r.flagValue)
		defer restore()
	}

	if b == nil || b.Len() == 0 {
		r.setState(ctx, StateAborted, 0)
		return nil, script.ErrEmptyScript
	}

	return r.runBatch(ctx, b), nil
}

func (r *Runner) runBatch(ctx context.Context, b *script.Batch) *Report {
	r.setState(ctx, StateLoaded, 0)

	lines := b.Lines()
	report := &Report{
		Script:  b.Path(),
		Started: time.Now(),
		Results: make([]*LineResult, 0, len(lines)),
	}

	for i, line := range lines {
		r.setState(ctx, StateExecuting, i+1)
		report.Results = append(report.Results, r.runLine(ctx, i+1, len(lines), line))
	}

	report.Finished = time.Now()
	r.writeSummary(report)
	r.setState(ctx, StateCompleted, 0)

	if err := report.Err(); err != nil {
		ctxlog.Debug(ctx, "batch completed with failures", "script", report.Script, "error", err)
	}

	return report
}

// Run executes the script at scriptPath and returns the process exit code.
func Run(ctx context.Context, scriptPath string, exec executor.Executor, s sink.Sink, opts ...Option) int {
	_, err := New(exec, s, opts...).Run(ctx, scriptPath)
	if err != nil {
		ctxlog.Error(ctx, "cannot run script", "script", scriptPath, "error", err)
	}

	return ExitCode(err)
}

func (r *Runner) runLine(ctx context.Context, index, total int, line script.Line) *LineResult {
	r.sink.WriteLine(sink.KindDelimiter, openingDelimiter(index, total, line.Number))
	r.sink.WriteLine(sink.KindCommand, "> "+line.Text)

	args := argv.Split(line.Text)
	res := &LineResult{
		Number: line.Number,
		Text:   line.Text,
		Args:   args,
		Status: StatusSuccess,
	}

	start := time.Now()
	outcome := r.execute(ctx, args)
	res.Duration = time.Since(start)
	res.ExitCode = outcome.ExitCode

	if outcome.Failed() {
		res.Status = StatusFailed
		res.Message = strings.ReplaceAll(outcome.Message(), "\n", ": ")
		res.err = errors.Join(ErrCommandExecution, outcome.Err)

		r.sink.WriteLine(sink.KindFailure, fmt.Sprintf("✗ line %d failed: %s", line.Number, res.Message))
		r.sink.WriteLine(sink.KindFailure, "  "+line.Text)
		ctxlog.Debug(ctx, "command failed", "line", line.Number, "exitCode", res.ExitCode, "error", outcome.Err)
	}

	r.sink.WriteLine(sink.KindDelimiter, strings.Repeat("=", delimiterWidth))
	r.sink.WriteLine(sink.KindInfo, "")

	return res
}

// execute runs one argument vector, turning a panic or a cancelled context into a failed Outcome.
func (r *Runner) execute(ctx context.Context, args []string) (outcome executor.Outcome) {
	if err := ctx.Err(); err != nil {
		return executor.Failure(errors.Join(ErrSkippedCancelled, err))
	}

	defer func() {
		if v := recover(); v != nil {
			ctxlog.Error(ctx, "executor panicked", "panic", v)
			outcome = executor.Failure(NewErrExecutorPanic(v))
		}
	}()

	return r.executor.Execute(ctx, args)
}

func (r *Runner) writeSummary(report *Report) {
	succeeded, failed := report.Counts()
	total := succeeded + failed

	if failed == 0 {
		r.sink.WriteLine(sink.KindSuccess,
			fmt.Sprintf("✓ completed %d of %d commands from %s", succeeded, total, report.Script))

		return
	}

	r.sink.WriteLine(sink.KindFailure,
		fmt.Sprintf("✗ completed %d commands from %s: %d succeeded, %d failed",
			total, report.Script, succeeded, failed))

	for _, l := range report.Failed() {
		r.sink.WriteLine(sink.KindFailure, fmt.Sprintf("  line %d: %s", l.Number, l.Message))
	}
}

func (r *Runner) setState(ctx context.Context, s State, current int) {
	r.mu.Lock()
	prev := r.state
	r.state = s
	r.current = current
	r.mu.Unlock()

	ctxlog.Debug(ctx, "batch state change", "from", prev.String(), "to", s.String(), "line", current)
}

func openingDelimiter(index, total, number int) string {
	label := fmt.Sprintf(" [%d/%d] line %d ", index, total, number)

	pad := delimiterWidth - len(label)
	if pad < 4 {
		pad = 4
	}

	left := pad / 2

	return strings.Repeat("=", left) + label + strings.Repeat("=", pad-left)
}
