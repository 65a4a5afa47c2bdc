// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package batch

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Status is the result of one command line.
type Status string

const (
	// StatusSuccess means the command succeeded.
	StatusSuccess Status = "success"
	// StatusFailed means the command failed or could not be run.
	StatusFailed Status = "failed"
)

// LineResult is the outcome of one command line.
type LineResult struct {
	Number   int           `yaml:"line" json:"line"`                           // Line number in the script
	Text     string        `yaml:"text" json:"text"`                           // The script line
	Args     []string      `yaml:"args" json:"args"`                           // The argument vector it was split into
	Status   Status        `yaml:"status" json:"status"`                       // Success or failure
	ExitCode int           `yaml:"exitCode" json:"exitCode"`                   // Exit code reported by the executor
	Message  string        `yaml:"message,omitempty" json:"message,omitempty"` // Failure reason
	Duration time.Duration `yaml:"duration" json:"duration"`                   // Time spent executing
	err      error         // Not persisted, only available in the run that produced it
}

// Err returns the error of a failed line from the run that produced it.
// It is nil for successful lines and for results read back from a file.
func (l *LineResult) Err() error {
	return l.err
}

// Failed reports whether the line failed.
func (l *LineResult) Failed() bool {
	return l.Status == StatusFailed
}

// Report is the record of a completed run.
type Report struct {
	Script   string        `yaml:"script" json:"script"`
	Started  time.Time     `yaml:"started" json:"started"`
	Finished time.Time     `yaml:"finished" json:"finished"`
	Results  []*LineResult `yaml:"results" json:"results"`
}

// Failed returns the failed lines in order.
func (r *Report) Failed() []*LineResult {
	var out []*LineResult

	for _, l := range r.Results {
		if l.Failed() {
			out = append(out, l)
		}
	}

	return out
}

// HasError reports whether any line failed.
func (r *Report) HasError() bool {
	return len(r.Failed()) > 0
}

// Counts returns the number of succeeded and failed lines.
func (r *Report) Counts() (succeeded, failed int) {
	failed = len(r.Failed())
	return len(r.Results) - failed, failed
}

// Duration returns the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Err combines the failures of every line, or returns nil.
// It is for logging: a run with failed lines still exits with ExitOK.
func (r *Report) Err() error {
	var merr *multierror.Error

	for _, l := range r.Failed() {
		cause := l.err
		if cause == nil {
			cause = fmt.Errorf("%w: %s", ErrCommandExecution, l.Message)
		}

		merr = multierror.Append(merr, fmt.Errorf("line %d: %w", l.Number, cause))
	}

	return merr.ErrorOrNil()
}
