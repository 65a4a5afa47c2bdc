// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package batch

import (
	"errors"
	"fmt"
)

var (
	// ErrCommandExecution is joined with the executor's error for every failed line.
	ErrCommandExecution = errors.New("command execution failed")
	// ErrSkippedCancelled is the failure recorded for lines reached after the context was cancelled.
	ErrSkippedCancelled = errors.New("not run, batch cancelled")
)

// ErrExecutorPanic is the failure recorded when an executor panics.
// It is constructed with the value that caused the panic.
type ErrExecutorPanic struct {
	v any
}

// NewErrExecutorPanic creates a new ErrExecutorPanic with the given value.
func NewErrExecutorPanic(v any) error {
	return &ErrExecutorPanic{v: v}
}

// Error implements the error interface for ErrExecutorPanic.
func (e *ErrExecutorPanic) Error() string {
	prefix := "executor panic:"

	switch x := e.v.(type) {
	case string:
		return fmt.Sprintf("%s %s", prefix, x)
	case error:
		return fmt.Sprintf("%s %s", prefix, x.Error())
	default:
		return fmt.Sprintf("%s %v", prefix, x)
	}
}

// Value returns the value passed to panic.
func (e *ErrExecutorPanic) Value() any {
	return e.v
}
