// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/matt-FFFFFF/cmdscript/internal/ctxlog"
	"github.com/matt-FFFFFF/cmdscript/internal/scopedflag"
	"github.com/matt-FFFFFF/cmdscript/internal/signalbroker"
	"github.com/matt-FFFFFF/cmdscript/internal/sink"
)

const (
	// DefaultHeartbeatInterval is how often a still-running command is reported.
	DefaultHeartbeatInterval = 10 * time.Second
	heartbeatLastLineLength  = 60
	killDrainTimeout         = 100 * time.Millisecond
	pathEnvVar               = "PATH"
)

var (
	// ErrCouldNotStartProcess is returned when the process could not be started.
	ErrCouldNotStartProcess = errors.New("could not start process")
	// ErrFailedToCreatePipe is returned when the operating system pipe could not be created.
	ErrFailedToCreatePipe = errors.New("failed to create pipe")
	// ErrTimeoutExceeded is returned when the command runs longer than its timeout.
	ErrTimeoutExceeded = errors.New("timeout exceeded")
	// ErrCancelled is returned when the run was cancelled before or while the command ran.
	ErrCancelled = errors.New("cancelled")
	// ErrSignalReceived is returned when an operating system signal was passed on to the process.
	ErrSignalReceived = errors.New("signal received")
	// ErrDuplicateSignalReceived is returned when a duplicate signal forced the process to be killed.
	ErrDuplicateSignalReceived = errors.New("duplicate signal received, process forcefully terminated")
	// ErrTerminated is returned when the process did not exit by itself, e.g. it was killed by a signal.
	ErrTerminated = errors.New("process terminated")
	// ErrWait is returned when waiting for the process failed.
	ErrWait = errors.New("failed to wait for process")
)

// Heartbeat controls whether OSExecutor reports still-running commands.
// It is the process-wide setting used when OSExecutor.Heartbeat is nil.
var Heartbeat = scopedflag.New(true)

var _ Executor = (*OSExecutor)(nil)

// OSExecutor runs each command as an operating system process.
// The first argument is the program, looked up on PATH unless it contains a
// path separator. Output is forwarded to Sink line by line while the process runs.
type OSExecutor struct {
	Sink              sink.Sink         // Receives the command's output, defaults to sink.Discard
	Cwd               string            // Working directory, defaults to the current directory
	Env               map[string]string // Added to the current environment, overriding duplicates
	Timeout           time.Duration     // Per command limit, zero means none
	SuccessExitCodes  []int             // Exit codes that indicate success, defaults to 0
	Heartbeat         *scopedflag.Flag  // Enables heartbeat lines, defaults to the package Heartbeat
	HeartbeatInterval time.Duration     // Defaults to DefaultHeartbeatInterval
	sigCh             chan os.Signal    // Channel to receive signals, allows mocking in test.
}

// Execute implements Executor.
func (e *OSExecutor) Execute(ctx context.Context, args []string) Outcome {
	logger := ctxlog.Logger(ctx).With("executor", "OSExecutor")

	if len(args) == 0 {
		return Failure(ErrNoArguments)
	}

	if err := ctx.Err(); err != nil {
		return Failure(errors.Join(ErrCancelled, err))
	}

	out := e.Sink
	if out == nil {
		out = sink.Discard
	}

	env := e.environ()

	path, err := LookPath(args[0], e.Cwd, envValue(env, pathEnvVar))
	if err != nil {
		return Failure(err)
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	rOut, wOut, err := os.Pipe()
	if err != nil {
		return Failure(errors.Join(ErrFailedToCreatePipe, err))
	}

	rErr, wErr, err := os.Pipe()
	if err != nil {
		closeAll(rOut, wOut)
		return Failure(errors.Join(ErrFailedToCreatePipe, err))
	}

	logger.Debug("starting process", "path", path, "args", args[1:], "cwd", e.Cwd)

	ps, err := os.StartProcess(path, slices.Clone(args), &os.ProcAttr{
		Dir:   e.Cwd,
		Env:   env,
		Files: []*os.File{os.Stdin, wOut, wErr},
	})

	// The child holds its own copies of the write ends.
	closeAll(wOut, wErr)

	if err != nil {
		closeAll(rOut, rErr)
		return Failure(errors.Join(ErrCouldNotStartProcess, err))
	}

	startTime := time.Now()

	logger.Debug("process started", "pid", ps.Pid)

	stdout := sink.NewLineWriter(out, sink.KindOutput)
	stderr := sink.NewLineWriter(out, sink.KindErrOutput)

	var copiers sync.WaitGroup

	for _, c := range []struct {
		w io.Writer
		r *os.File
	}{{stdout, rOut}, {stderr, rErr}} {
		copiers.Add(1)

		go func() {
			defer copiers.Done()

			if _, err := io.Copy(c.w, c.r); err != nil && !errors.Is(err, os.ErrDeadlineExceeded) {
				logger.Debug("output copy ended with error", "error", err)
			}
		}()
	}

	sigCh := e.sigCh
	if sigCh == nil {
		sigCh = signalbroker.New(ctx)
		defer signalbroker.Stop(sigCh)
	}

	// Reasons the watchdog interfered with the process.
	reasons := make(chan error, 3)
	done := make(chan struct{})

	var watchdog sync.WaitGroup

	watchdog.Add(1)

	go func() {
		defer watchdog.Done()
		e.watch(ctx, watchState{
			ps:      ps,
			name:    args[0],
			start:   startTime,
			sigCh:   sigCh,
			done:    done,
			reasons: reasons,
			out:     out,
			stdout:  stdout,
		})
	}()

	logger.Debug("waiting for process to finish")

	state, waitErr := ps.Wait()

	close(done)
	watchdog.Wait()
	close(reasons)

	var interfered []error
	for r := range reasons {
		interfered = append(interfered, r)
	}

	// A background child of a killed process can hold the pipes open.
	// Give the copiers a short drain window instead of waiting for EOF.
	if len(interfered) > 0 {
		deadline := time.Now().Add(killDrainTimeout)
		for _, f := range []*os.File{rOut, rErr} {
			if err := f.SetReadDeadline(deadline); err != nil {
				logger.Debug("cannot set pipe read deadline, closing pipe", "error", err)
				_ = f.Close()
			}
		}
	}

	copiers.Wait()
	closeAll(rOut, rErr)

	_ = stdout.Close()
	_ = stderr.Close()

	return e.outcome(ctx, state, waitErr, interfered)
}

type watchState struct {
	ps      *os.Process
	name    string
	start   time.Time
	sigCh   <-chan os.Signal
	done    <-chan struct{}
	reasons chan<- error
	out     sink.Sink
	stdout  *sink.LineWriter
}

// watch passes signals on to the process, kills it when ctx is done and
// writes heartbeat lines while it runs. It returns when done is closed.
func (e *OSExecutor) watch(ctx context.Context, st watchState) {
	logger := ctxlog.Logger(ctx)
	signalCount := make(map[os.Signal]struct{})

	interval := e.HeartbeatInterval
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ctxDone := ctx.Done()

	for {
		select {
		case <-st.done:
			return

		case <-ticker.C:
			if !e.heartbeat().Get() {
				continue
			}

			elapsed := time.Since(st.start).Round(time.Second)
			msg := fmt.Sprintf("... %s still running [%s]", st.name, elapsed)

			if last := st.stdout.LastLine(heartbeatLastLineLength); last != "" {
				msg += ": " + last
			}

			st.out.WriteLine(sink.KindInfo, msg)

		case s := <-st.sigCh:
			if _, ok := signalCount[s]; ok {
				logger.Info("received duplicate signal, killing process", "signal", s.String())
				killPs(ctx, st.ps)
				report(st.reasons, ErrDuplicateSignalReceived)

				continue
			}

			signalCount[s] = struct{}{}

			logger.Info("received signal", "signal", s.String())

			if err := st.ps.Signal(s); err != nil {
				logger.Info("failed to send signal", "signal", s.String(), "error", err)
			}

			report(st.reasons, ErrSignalReceived)

		case <-ctxDone:
			ctxDone = nil // kill once, then wait for done

			reason := ErrCancelled
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				reason = ErrTimeoutExceeded
			}

			logger.Info("context done, killing process", "reason", reason)
			killPs(ctx, st.ps)
			report(st.reasons, reason)
		}
	}
}

func (e *OSExecutor) outcome(ctx context.Context, state *os.ProcessState, waitErr error, interfered []error) Outcome {
	logger := ctxlog.Logger(ctx)

	if waitErr != nil {
		return Failure(errors.Join(append([]error{ErrWait, waitErr}, interfered...)...))
	}

	code := state.ExitCode()
	logger.Debug("process finished", "exitCode", code, "state", state.String())

	if len(interfered) > 0 {
		return Outcome{Err: errors.Join(interfered...), ExitCode: -1}
	}

	if !state.Exited() {
		return Outcome{Err: fmt.Errorf("%w: %s", ErrTerminated, state.String()), ExitCode: -1}
	}

	successCodes := e.SuccessExitCodes
	if len(successCodes) == 0 {
		successCodes = []int{0}
	}

	if slices.Contains(successCodes, code) {
		return Outcome{ExitCode: code}
	}

	return Outcome{Err: &ExitError{Code: code}, ExitCode: code}
}

func (e *OSExecutor) heartbeat() *scopedflag.Flag {
	if e.Heartbeat != nil {
		return e.Heartbeat
	}

	return Heartbeat
}

// environ returns the process environment with Env applied on top, in a stable order.
func (e *OSExecutor) environ() []string {
	env := os.Environ()
	if len(e.Env) == 0 {
		return env
	}

	env = slices.DeleteFunc(env, func(kv string) bool {
		for k := range e.Env {
			if len(kv) > len(k) && kv[:len(k)] == k && kv[len(k)] == '=' {
				return true
			}
		}

		return false
	})

	for _, k := range slices.Sorted(maps.Keys(e.Env)) {
		env = append(env, k+"="+e.Env[k])
	}

	return env
}

func envValue(env []string, key string) string {
	for _, kv := range slices.Backward(env) {
		if len(kv) > len(key) && kv[:len(key)] == key && kv[len(key)] == '=' {
			return kv[len(key)+1:]
		}
	}

	return ""
}

func report(ch chan<- error, err error) {
	select {
	case ch <- err:
	default:
	}
}

// killPs kills the process, ignoring a process that has already finished.
func killPs(ctx context.Context, ps *os.Process) {
	if err := ps.Kill(); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			ctxlog.Logger(ctx).Debug("process already done", "pid", ps.Pid)
			return
		}

		ctxlog.Logger(ctx).Error("process kill error", "pid", ps.Pid, "error", err)

		return
	}

	ctxlog.Logger(ctx).Info("process killed", "pid", ps.Pid)
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}
