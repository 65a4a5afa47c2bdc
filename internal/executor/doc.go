// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package executor runs a single command given as an argument vector.
//
// The batch runner only depends on the Executor interface. OSExecutor starts
// the first argument as a process; Func adapts a plain function, which is how
// tests and in-process commands plug in.
package executor
