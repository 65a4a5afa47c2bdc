// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package executor

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNoArguments is returned when the argument vector is empty.
	ErrNoArguments = errors.New("no command given")
	// ErrCommandNotFound is returned when the executable cannot be found.
	ErrCommandNotFound = errors.New("command not found")
)

// Outcome is the result of executing one command.
// A nil Err means success.
type Outcome struct {
	Err      error // Why the command failed, nil on success
	ExitCode int   // Process exit code, -1 if the process did not finish normally
}

// Success returns a successful Outcome.
func Success() Outcome {
	return Outcome{}
}

// Failure returns a failed Outcome for err.
// The exit code is taken from an *ExitError in err's chain, otherwise it is -1.
func Failure(err error) Outcome {
	code := -1

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.Code
	}

	return Outcome{Err: err, ExitCode: code}
}

// Failed reports whether the command failed.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Message returns a human-readable description of the outcome.
func (o Outcome) Message() string {
	if o.Err == nil {
		return "ok"
	}

	return o.Err.Error()
}

// Executor runs one command.
// Implementations report every failure through the returned Outcome.
type Executor interface {
	Execute(ctx context.Context, args []string) Outcome
}

// Func adapts a function to the Executor interface.
type Func func(ctx context.Context, args []string) Outcome

// Execute implements Executor.
func (f Func) Execute(ctx context.Context, args []string) Outcome {
	return f(ctx, args)
}

// ExitError reports a process that exited with a code not considered successful.
type ExitError struct {
	Code int
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}
