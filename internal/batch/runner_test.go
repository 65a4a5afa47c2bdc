// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package batch

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/matt-FFFFFF/cmdscript/internal/executor"
	"github.com/matt-FFFFFF/cmdscript/internal/scopedflag"
	"github.com/matt-FFFFFF/cmdscript/internal/script"
	"github.com/matt-FFFFFF/cmdscript/internal/sink"
	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var errBoom = errors.New("boom")

// recordingExecutor records every argument vector and fails commands named "fail".
type recordingExecutor struct {
	mu    sync.Mutex
	calls [][]string
}

func (e *recordingExecutor) Execute(_ context.Context, args []string) executor.Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls = append(e.calls, args)

	if args[0] == "fail" {
		return executor.Failure(errors.Join(errBoom, &executor.ExitError{Code: 2}))
	}

	return executor.Success()
}

func (e *recordingExecutor) Calls() [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.calls
}

func memFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}

	return fs
}

func TestRunner_ThreeLinesMiddleFails(t *testing.T) {
	fs := memFs(t, map[string]string{
		"/script.txt": "# icons\n" +
			"convert \"a b.svg\" out.png\n" +
			"\n" +
			"fail here\n" +
			"   # skipped\n" +
			"echo done\n",
	})

	exec := &recordingExecutor{}
	rec := &sink.Recorder{}
	r := New(exec, rec, WithFs(fs))

	report, err := r.Run(context.Background(), "/script.txt")
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"convert", "a b.svg", "out.png"},
		{"fail", "here"},
		{"echo", "done"},
	}, exec.Calls())

	state, _ := r.State()
	assert.Equal(t, StateCompleted, state)

	require.Len(t, report.Results, 3)
	assert.Equal(t, []int{2, 4, 6}, []int{report.Results[0].Number, report.Results[1].Number, report.Results[2].Number})
	assert.False(t, report.Results[0].Failed())
	assert.True(t, report.Results[1].Failed())
	assert.Equal(t, 2, report.Results[1].ExitCode)
	assert.ErrorIs(t, report.Results[1].Err(), ErrCommandExecution)
	assert.ErrorIs(t, report.Results[1].Err(), errBoom)
	assert.False(t, report.Results[2].Failed())

	succeeded, failed := report.Counts()
	assert.Equal(t, 2, succeeded)
	assert.Equal(t, 1, failed)
	assert.ErrorIs(t, report.Err(), errBoom)

	lines := rec.Lines()
	assert.Equal(t, strings.Repeat("=", 23)+" [1/3] line 2 "+strings.Repeat("=", 23), lines[0])
	assert.Equal(t, `> convert "a b.svg" out.png`, lines[1])

	var failures []string

	for _, e := range rec.Entries() {
		if e.Kind == sink.KindFailure {
			failures = append(failures, e.Line)
		}
	}

	require.NotEmpty(t, failures)
	assert.Equal(t, "✗ line 4 failed: boom: exit status 2", failures[0])
	assert.Equal(t, "  fail here", failures[1])

	last := rec.Entries()[len(rec.Entries())-1]
	assert.Equal(t, sink.KindFailure, last.Kind)
	assert.Contains(t, strings.Join(lines, "\n"), "✗ completed 3 commands from /script.txt: 2 succeeded, 1 failed")
}

func TestRunner_EveryLineHasTrailingDelimiter(t *testing.T) {
	fs := memFs(t, map[string]string{"/s.txt": "a\nfail\nb\n"})
	rec := &sink.Recorder{}

	_, err := New(&recordingExecutor{}, rec, WithFs(fs)).Run(context.Background(), "/s.txt")
	require.NoError(t, err)

	var opening, closing, blank int

	for _, e := range rec.Entries() {
		switch {
		case e.Kind == sink.KindDelimiter && strings.Contains(e.Line, "line"):
			opening++
		case e.Kind == sink.KindDelimiter:
			closing++
		case e.Kind == sink.KindInfo && e.Line == "":
			blank++
		}
	}

	assert.Equal(t, 3, opening)
	assert.Equal(t, 3, closing)
	assert.Equal(t, 3, blank)
}

func TestRun_ExitCodes(t *testing.T) {
	testCases := []struct {
		name string
		fs   func(t *testing.T) afero.Fs
		path string
		want int
	}{
		{
			name: "commands fail but batch loaded",
			fs: func(t *testing.T) afero.Fs {
				return memFs(t, map[string]string{"/s.txt": "fail\nfail\n"})
			},
			path: "/s.txt",
			want: ExitOK,
		},
		{
			name: "missing argument",
			fs:   func(t *testing.T) afero.Fs { return memFs(t, nil) },
			path: "",
			want: ExitMissingArgument,
		},
		{
			name: "file does not exist",
			fs:   func(t *testing.T) afero.Fs { return memFs(t, nil) },
			path: "/nope.txt",
			want: ExitScriptUnreadable,
		},
		{
			name: "path is a directory",
			fs: func(t *testing.T) afero.Fs {
				fs := memFs(t, nil)
				require.NoError(t, fs.MkdirAll("/dir", 0o755))

				return fs
			},
			path: "/dir",
			want: ExitScriptUnreadable,
		},
		{
			name: "read fails",
			fs: func(t *testing.T) afero.Fs {
				return &unreadableFs{Fs: memFs(t, map[string]string{"/s.txt": "echo\n"})}
			},
			path: "/s.txt",
			want: ExitScriptRead,
		},
		{
			name: "only comments",
			fs: func(t *testing.T) afero.Fs {
				return memFs(t, map[string]string{"/s.txt": "# one\n\n  # two\n"})
			},
			path: "/s.txt",
			want: ExitEmptyScript,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			exec := &recordingExecutor{}
			rec := &sink.Recorder{}

			got := Run(context.Background(), tc.path, exec, rec, WithFs(tc.fs(t)))
			assert.Equal(t, tc.want, got)

			if tc.want != ExitOK {
				assert.Empty(t, exec.Calls(), "executor must not be called when loading fails")
				assert.Empty(t, rec.Lines(), "nothing is written to the sink when loading fails")
			}
		})
	}
}

func TestRunner_LoadFailureState(t *testing.T) {
	fs := memFs(t, map[string]string{"/s.txt": "#only\n"})
	r := New(&recordingExecutor{}, nil, WithFs(fs))

	state, _ := r.State()
	assert.Equal(t, StateIdle, state)

	_, err := r.Run(context.Background(), "/s.txt")
	require.ErrorIs(t, err, script.ErrEmptyScript)

	state, _ = r.State()
	assert.Equal(t, StateAborted, state)
}

func TestRunner_DefaultFsFactory(t *testing.T) {
	fs := memFs(t, map[string]string{"/s.txt": "echo\n"})
	stubs := gostub.Stub(&script.FsFactory, func() afero.Fs { return fs })

	defer stubs.Reset()

	exec := &recordingExecutor{}
	assert.Equal(t, ExitOK, Run(context.Background(), "/s.txt", exec, nil))
	assert.Len(t, exec.Calls(), 1)
}

func TestRunner_RunBatch(t *testing.T) {
	fs := memFs(t, map[string]string{"/s.txt": "# header\none\nfail two\n"})

	b, err := script.LoadFs(fs, "/s.txt")
	require.NoError(t, err)

	// The file is gone: RunBatch must not read or validate it again.
	require.NoError(t, fs.Remove("/s.txt"))

	flag := scopedflag.New(true)
	exec := &recordingExecutor{}
	rec := &sink.Recorder{}
	r := New(exec, rec, WithFs(fs), WithRestoreFlag(flag, false))

	report, err := r.RunBatch(context.Background(), b)
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"one"}, {"fail", "two"}}, exec.Calls())
	assert.Equal(t, "/s.txt", report.Script)
	assert.Equal(t, []int{2, 3}, []int{report.Results[0].Number, report.Results[1].Number})
	assert.True(t, flag.Get())

	state, _ := r.State()
	assert.Equal(t, StateCompleted, state)
}

func TestRunner_RunBatchEmpty(t *testing.T) {
	for _, b := range []*script.Batch{nil, {}} {
		exec := &recordingExecutor{}
		rec := &sink.Recorder{}
		r := New(exec, rec)

		_, err := r.RunBatch(context.Background(), b)
		require.ErrorIs(t, err, script.ErrEmptyScript)
		assert.Equal(t, ExitEmptyScript, ExitCode(err))
		assert.Empty(t, exec.Calls())
		assert.Empty(t, rec.Lines())

		state, _ := r.State()
		assert.Equal(t, StateAborted, state)
	}
}

func TestRunner_Idempotent(t *testing.T) {
	fs := memFs(t, map[string]string{"/s.txt": "one\nfail two\n\"three four\"\n"})

	run := func() []string {
		rec := &sink.Recorder{}
		_, err := New(&recordingExecutor{}, rec, WithFs(fs)).Run(context.Background(), "/s.txt")
		require.NoError(t, err)

		return rec.Lines()
	}

	assert.Equal(t, run(), run())
}

func TestRunner_StateWhileExecuting(t *testing.T) {
	fs := memFs(t, map[string]string{"/s.txt": "a\nb\nc\n"})

	var (
		r    *Runner
		seen []int
	)

	exec := executor.Func(func(_ context.Context, _ []string) executor.Outcome {
		state, current := r.State()
		assert.Equal(t, StateExecuting, state)

		seen = append(seen, current)

		return executor.Success()
	})

	r = New(exec, nil, WithFs(fs))
	_, err := r.Run(context.Background(), "/s.txt")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestRunner_ExecutorPanic(t *testing.T) {
	fs := memFs(t, map[string]string{"/s.txt": "panic\necho after\n"})

	var calls int

	exec := executor.Func(func(_ context.Context, args []string) executor.Outcome {
		calls++

		if args[0] == "panic" {
			panic("executor exploded")
		}

		return executor.Success()
	})

	report, err := New(exec, nil, WithFs(fs)).Run(context.Background(), "/s.txt")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	var panicErr *ErrExecutorPanic

	require.ErrorAs(t, report.Results[0].Err(), &panicErr)
	assert.Equal(t, "executor exploded", panicErr.Value())
	assert.Equal(t, "executor panic: executor exploded", report.Results[0].Message)
	assert.False(t, report.Results[1].Failed())
}

func TestRunner_CancelledContext(t *testing.T) {
	fs := memFs(t, map[string]string{"/s.txt": "a\nb\n"})
	exec := &recordingExecutor{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(exec, nil, WithFs(fs))
	report, err := r.Run(ctx, "/s.txt")
	require.NoError(t, err)

	assert.Empty(t, exec.Calls())
	require.Len(t, report.Results, 2)

	for _, l := range report.Results {
		assert.ErrorIs(t, l.Err(), ErrSkippedCancelled)
		assert.ErrorIs(t, l.Err(), context.Canceled)
	}

	state, _ := r.State()
	assert.Equal(t, StateCompleted, state)
}

func TestRunner_WithRestoreFlag(t *testing.T) {
	testCases := []struct {
		name string
		exec func(flag *scopedflag.Flag, observed *[]bool) executor.Executor
	}{
		{
			name: "every command fails",
			exec: func(flag *scopedflag.Flag, observed *[]bool) executor.Executor {
				return executor.Func(func(context.Context, []string) executor.Outcome {
					*observed = append(*observed, flag.Get())
					return executor.Failure(errBoom)
				})
			},
		},
		{
			name: "every command panics",
			exec: func(flag *scopedflag.Flag, observed *[]bool) executor.Executor {
				return executor.Func(func(context.Context, []string) executor.Outcome {
					*observed = append(*observed, flag.Get())
					panic(errBoom)
				})
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fs := memFs(t, map[string]string{"/s.txt": "x\ny\n"})
			flag := scopedflag.New(true)

			var observed []bool

			code := Run(context.Background(), "/s.txt", tc.exec(flag, &observed), nil,
				WithFs(fs), WithRestoreFlag(flag, false))

			assert.Equal(t, ExitOK, code)
			assert.Equal(t, []bool{false, false}, observed)
			assert.True(t, flag.Get(), "flag restored after the run")
		})
	}
}

func TestRunner_WithRestoreFlagLoadFailure(t *testing.T) {
	flag := scopedflag.New(true)

	code := Run(context.Background(), "", &recordingExecutor{}, nil,
		WithFs(memFs(t, nil)), WithRestoreFlag(flag, false))

	assert.Equal(t, ExitMissingArgument, code)
	assert.True(t, flag.Get())
}

func TestRunner_ConcurrentRunsWithSeparateFlags(t *testing.T) {
	fs := memFs(t, map[string]string{"/s.txt": "a\nb\nc\n"})

	var wg sync.WaitGroup

	for i := range 8 {
		wg.Add(1)

		go func(want bool) {
			defer wg.Done()

			flag := scopedflag.New(!want)
			exec := executor.Func(func(context.Context, []string) executor.Outcome {
				if flag.Get() != want {
					return executor.Failure(errBoom)
				}

				return executor.Success()
			})

			report, err := New(exec, nil, WithFs(fs), WithRestoreFlag(flag, want)).Run(context.Background(), "/s.txt")
			assert.NoError(t, err)
			assert.False(t, report.HasError())
			assert.Equal(t, !want, flag.Get())
		}(i%2 == 0)
	}

	wg.Wait()
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitFailure, ExitCode(errBoom))
	assert.Equal(t, ExitMissingArgument, ExitCode(script.ErrMissingArgument))
	assert.Equal(t, ExitScriptUnreadable, ExitCode(errors.Join(script.ErrScriptFileUnreadable, os.ErrNotExist)))
	assert.Equal(t, ExitScriptRead, ExitCode(errors.Join(script.ErrScriptRead, errBoom)))
	assert.Equal(t, ExitEmptyScript, ExitCode(script.ErrEmptyScript))
}

// unreadableFs opens files whose Read always fails.
type unreadableFs struct {
	afero.Fs
}

func (f *unreadableFs) Open(name string) (afero.File, error) {
	file, err := f.Fs.Open(name)
	if err != nil {
		return nil, err
	}

	return &unreadableFile{File: file}, nil
}

type unreadableFile struct {
	afero.File
}

func (f *unreadableFile) Read([]byte) (int, error) {
	return 0, errBoom
}
