// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package sink

import (
	"bytes"
	"strings"
	"sync"
	"unicode/utf8"
)

// LineWriter is an io.Writer that forwards each complete line written to it
// to a Sink. Bytes after the last newline are held until more data arrives or
// Close is called. A trailing carriage return is removed from each line.
// It is safe for concurrent use.
type LineWriter struct {
	sink    Sink
	kind    Kind
	partial bytes.Buffer
	lines   int
	lastLn  string
	mu      sync.Mutex
}

// NewLineWriter creates a LineWriter forwarding lines of the given kind to s.
func NewLineWriter(s Sink, kind Kind) *LineWriter {
	return &LineWriter{
		sink: s,
		kind: kind,
	}
}

// Write implements io.Writer. It never fails.
func (lw *LineWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	lw.partial.Write(p)

	for {
		i := bytes.IndexByte(lw.partial.Bytes(), '\n')
		if i < 0 {
			break
		}

		line := string(lw.partial.Next(i + 1))
		lw.emit(line[:len(line)-1])
	}

	return len(p), nil
}

// Close forwards any held partial line. It always returns nil.
func (lw *LineWriter) Close() error {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	if lw.partial.Len() > 0 {
		lw.emit(lw.partial.String())
		lw.partial.Reset()
	}

	return nil
}

// Lines returns how many lines have been forwarded.
func (lw *LineWriter) Lines() int {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	return lw.lines
}

// LastLine returns the most recently forwarded line, truncated to maxLength
// bytes with a trailing "..." when maxLength > 3 and the line is longer.
// Truncation never splits a UTF-8 sequence.
func (lw *LineWriter) LastLine(maxLength int) string {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	if maxLength <= 3 || len(lw.lastLn) <= maxLength {
		return lw.lastLn
	}

	cut := maxLength - 3
	for cut > 0 && !utf8.RuneStart(lw.lastLn[cut]) {
		cut--
	}

	return lw.lastLn[:cut] + "..."
}

// emit must be called with mu held.
func (lw *LineWriter) emit(line string) {
	line = strings.TrimSuffix(line, "\r")
	lw.lines++
	lw.lastLn = line
	lw.sink.WriteLine(lw.kind, line)
}
