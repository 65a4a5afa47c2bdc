// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package script loads command script files.
//
// A script is a UTF-8 text file with one command per line. Blank lines and
// lines whose first non-whitespace character is '#' are ignored. Everything
// else is a command line, kept in file order.
package script
