// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package argv

import (
	"strings"
)

const quote = '"'

// Split splits line into arguments.
//
// The line is trimmed first. Delimiters inside a quoted span do not split.
// Consecutive delimiters never produce an empty argument, but an explicitly
// quoted empty string ("") does. An unmatched quote opens a span that runs to
// the end of the line.
func Split(line string) []string {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	var (
		args    []string
		current strings.Builder
		inQuote bool
		// quoted records that the current token contained a quote, so an
		// empty quoted token is still emitted.
		quoted bool
	)

	flush := func() {
		if current.Len() == 0 && !quoted {
			return
		}

		args = append(args, current.String())
		current.Reset()

		quoted = false
	}

	for _, r := range line {
		switch {
		case r == quote:
			inQuote = !inQuote
			quoted = true
		case isDelimiter(r) && !inQuote:
			flush()
		default:
			current.WriteRune(r)
		}
	}

	flush()

	return args
}

func isDelimiter(r rune) bool {
	return r == ' ' || r == '\t'
}
