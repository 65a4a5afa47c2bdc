// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package argv

import "strings"

// Join is the inverse of Split for arguments that contain no quote character.
// Arguments that are empty or contain a delimiter are wrapped in quotes.
func Join(args []string) string {
	out := make([]string, len(args))

	for i, a := range args {
		if a == "" || strings.ContainsAny(a, " \t") {
			a = string(quote) + a + string(quote)
		}

		out[i] = a
	}

	return strings.Join(out, " ")
}
