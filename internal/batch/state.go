// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package batch

// State is the stage a Runner has reached.
type State int

const (
	// StateIdle is the state before Run is called.
	StateIdle State = iota
	// StateValidating is checking and loading the script.
	StateValidating
	// StateLoaded means the script loaded and has at least one command.
	StateLoaded
	// StateExecuting is running a command line.
	StateExecuting
	// StateCompleted means every command line was visited.
	StateCompleted
	// StateAborted means the script could not be loaded.
	StateAborted
)

// String implements the Stringer interface for State.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateValidating:
		return "Validating"
	case StateLoaded:
		return "Loaded"
	case StateExecuting:
		return "Executing"
	case StateCompleted:
		return "Completed"
	case StateAborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}
