// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package script

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/afero"
)

const (
	commentPrefix = "#"
	byteOrderMark = "\uFEFF"
)

var (
	// ErrMissingArgument is returned when no script path is given.
	ErrMissingArgument = errors.New("no script file specified")
	// ErrScriptFileUnreadable is returned when the script does not exist, is not a regular file or cannot be opened.
	ErrScriptFileUnreadable = errors.New("script file does not exist or is not readable")
	// ErrScriptRead is returned when the script could be opened but reading it failed.
	ErrScriptRead = errors.New("failed to read script file")
	// ErrEmptyScript is returned when a script has no executable lines.
	ErrEmptyScript = errors.New("script file contains no executable lines")
)

// Line is a single line of a script file.
type Line struct {
	Number int    // 1-based line number in the file
	Text   string // The line as written, without the line terminator
}

// String returns the line text.
func (l Line) String() string {
	return l.Text
}

// IsExecutable reports whether the line is neither blank nor a comment.
func (l Line) IsExecutable() bool {
	trimmed := strings.TrimSpace(l.Text)
	return trimmed != "" && !strings.HasPrefix(trimmed, commentPrefix)
}

// Batch is the ordered set of executable lines of a script.
// It is never modified after Load returns it.
type Batch struct {
	path  string
	lines []Line
}

// Path returns the path the batch was loaded from.
func (b *Batch) Path() string {
	return b.path
}

// Len returns the number of executable lines.
func (b *Batch) Len() int {
	return len(b.lines)
}

// Lines returns a copy of the executable lines in file order.
func (b *Batch) Lines() []Line {
	return slices.Clone(b.lines)
}

// Validate checks that path names a readable regular file.
func Validate(fs afero.Fs, path string) error {
	if path == "" {
		return ErrMissingArgument
	}

	info, err := fs.Stat(path)
	if err != nil {
		return errors.Join(ErrScriptFileUnreadable, err)
	}

	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrScriptFileUnreadable, path)
	}

	f, err := fs.Open(path)
	if err != nil {
		return errors.Join(ErrScriptFileUnreadable, err)
	}

	return f.Close() //nolint:wrapcheck
}

// ReadLines reads every line of the file at path.
// The file is decoded as UTF-8; a leading byte order mark is dropped and
// invalid sequences are replaced with U+FFFD.
func ReadLines(fs afero.Fs, path string) ([]Line, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Join(ErrScriptRead, err)
	}

	text := strings.ToValidUTF8(string(data), "\uFFFD")
	text = strings.TrimPrefix(text, byteOrderMark)

	if text == "" {
		return nil, nil
	}

	raw := strings.Split(text, "\n")
	if raw[len(raw)-1] == "" {
		raw = raw[:len(raw)-1] // a final newline does not start another line
	}

	lines := make([]Line, 0, len(raw))
	for i, s := range raw {
		lines = append(lines, Line{
			Number: i + 1,
			Text:   strings.TrimSuffix(s, "\r"),
		})
	}

	return lines, nil
}

// Filter returns the executable lines, in order, as a new slice.
func Filter(lines []Line) []Line {
	out := make([]Line, 0, len(lines))

	for _, l := range lines {
		if l.IsExecutable() {
			out = append(out, l)
		}
	}

	return out
}

// Load validates, reads and filters the script at path using the filesystem from FsFactory.
func Load(path string) (*Batch, error) {
	return LoadFs(FsFactory(), path)
}

// LoadFs validates, reads and filters the script at path using fs.
func LoadFs(fs afero.Fs, path string) (*Batch, error) {
	if err := Validate(fs, path); err != nil {
		return nil, err
	}

	lines, err := ReadLines(fs, path)
	if err != nil {
		return nil, err
	}

	executable := Filter(lines)
	if len(executable) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyScript, path)
	}

	return &Batch{
		path:  path,
		lines: executable,
	}, nil
}
