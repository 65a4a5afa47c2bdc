// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxlog carries a *slog.Logger in a context.Context.
//
// The default logger writes human-readable records to stderr, leaving stdout
// to the batch progress output. The level comes from the CMDSCRIPT_LOG_LEVEL
// environment variable: DEBUG, INFO, WARN or ERROR. Anything else means INFO.
package ctxlog
