// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package batch

import (
	"errors"

	"github.com/matt-FFFFFF/cmdscript/internal/script"
)

// Exit codes of a batch run. These values are part of the command-line
// interface and must not be renumbered.
const (
	// ExitOK means the script loaded and every line was run. Failed commands do not change it.
	ExitOK = 0
	// ExitFailure is any error that is not a script load error.
	ExitFailure = 1
	// ExitMissingArgument means no script path was given.
	ExitMissingArgument = 2
	// ExitScriptUnreadable means the script does not exist, is not a regular file or cannot be opened.
	ExitScriptUnreadable = 3
	// ExitScriptRead means reading the script failed.
	ExitScriptRead = 4
	// ExitEmptyScript means the script has no executable lines.
	ExitEmptyScript = 5
)

// ExitCode maps the error returned by Runner.Run to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, script.ErrMissingArgument):
		return ExitMissingArgument
	case errors.Is(err, script.ErrScriptFileUnreadable):
		return ExitScriptUnreadable
	case errors.Is(err, script.ErrScriptRead):
		return ExitScriptRead
	case errors.Is(err, script.ErrEmptyScript):
		return ExitEmptyScript
	default:
		return ExitFailure
	}
}
