// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package argv splits a single script line into an argument vector.
//
// Spaces and tabs separate arguments. Double quotes group a span of text,
// including its whitespace, into a single argument and are always removed
// from the output. There is no escape character, so an argument can never
// contain a literal double quote.
package argv
