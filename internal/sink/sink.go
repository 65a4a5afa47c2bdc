// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package sink

import (
	"io"
	"slices"
	"sync"

	"github.com/matt-FFFFFF/cmdscript/internal/color"
)

// Kind says what a progress line is.
type Kind int

const (
	// KindInfo is general progress text.
	KindInfo Kind = iota
	// KindDelimiter marks the start or end of a command.
	KindDelimiter
	// KindCommand is the literal script line being run.
	KindCommand
	// KindOutput is a line the command wrote to stdout.
	KindOutput
	// KindErrOutput is a line the command wrote to stderr.
	KindErrOutput
	// KindFailure reports a failed command.
	KindFailure
	// KindSuccess reports overall completion.
	KindSuccess
)

// String implements the Stringer interface for Kind.
func (k Kind) String() string {
	switch k {
	case KindInfo:
		return "info"
	case KindDelimiter:
		return "delimiter"
	case KindCommand:
		return "command"
	case KindOutput:
		return "output"
	case KindErrOutput:
		return "errOutput"
	case KindFailure:
		return "failure"
	case KindSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// Sink receives progress lines. Implementations must be safe for concurrent
// use: a running command's stdout and stderr are forwarded from separate goroutines.
type Sink interface {
	WriteLine(kind Kind, line string)
}

// Writer is a Sink that writes each line to an io.Writer.
type Writer struct {
	w      io.Writer
	mu     sync.Mutex
	colour bool
}

// Option implements a functional options pattern for Writer.
type Option func(*Writer)

// WithColour styles lines by kind using ANSI escape codes.
func WithColour() Option {
	return func(w *Writer) {
		w.colour = true
	}
}

// WithAutoColour styles lines when the terminal supports it.
func WithAutoColour() Option {
	return func(w *Writer) {
		w.colour = color.Enabled()
	}
}

// NewWriter creates a Writer. Write errors are ignored: progress output is best effort.
func NewWriter(w io.Writer, opts ...Option) *Writer {
	s := &Writer{w: w}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WriteLine implements Sink.
func (s *Writer) WriteLine(kind Kind, line string) {
	if s.colour {
		line = style(kind, line)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = io.WriteString(s.w, line+"\n")
}

func style(kind Kind, line string) string {
	if line == "" {
		return line
	}

	switch kind {
	case KindDelimiter:
		return color.Paint(line, color.Bold, color.FgCyan)
	case KindCommand:
		return color.Paint(line, color.Bold, color.FgHiWhite)
	case KindErrOutput:
		return color.Paint(line, color.FgHiRed)
	case KindFailure:
		return color.Paint(line, color.Bold, color.FgRed)
	case KindSuccess:
		return color.Paint(line, color.Bold, color.FgGreen)
	default:
		return line
	}
}

// Entry is a line captured by a Recorder.
type Entry struct {
	Kind Kind
	Line string
}

// Recorder is a Sink that keeps every line in memory.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// WriteLine implements Sink.
func (r *Recorder) WriteLine(kind Kind, line string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, Entry{Kind: kind, Line: line})
}

// Entries returns a copy of the recorded entries.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.entries)
}

// Lines returns the recorded text, one element per line.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Line
	}

	return out
}

// Discard is a Sink that drops every line.
var Discard Sink = discard{}

type discard struct{}

func (discard) WriteLine(Kind, string) {}
