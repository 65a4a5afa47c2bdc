// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package batch runs a command script line by line.
//
// A run validates and loads the script, then executes every command line in
// file order. A failing command is reported to the sink and the run moves on
// to the next line; only problems loading the script stop a run. The exit
// code of a run therefore reflects the script, not the commands in it.
//
// The runner moves through these states, never backwards:
//
//	Idle -> Validating -> Loaded -> Executing(1) -> ... -> Executing(n) -> Completed
//
// Validating ends in Aborted when the script cannot be loaded.
package batch
