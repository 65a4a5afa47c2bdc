// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package sink receives the line-oriented progress text of a batch run.
//
// Every line carries a Kind so that a terminal sink can style delimiters,
// failures and command output differently, while the text itself stays the
// same for every sink.
package sink
