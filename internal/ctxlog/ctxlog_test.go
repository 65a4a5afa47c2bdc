// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	custom := slog.New(slog.NewTextHandler(os.Stderr, nil))

	tests := []struct {
		name string
		ctx  context.Context
		want *slog.Logger
	}{
		{
			name: "context with logger",
			ctx:  New(context.Background(), custom),
			want: custom,
		},
		{
			name: "nil logger falls back to default",
			ctx:  New(context.Background(), nil),
			want: DefaultLogger,
		},
		{
			name: "context without logger",
			ctx:  context.Background(),
			want: DefaultLogger,
		},
		{
			name: "context with wrong type value",
			ctx:  context.WithValue(context.Background(), loggerKey{}, "not a logger"),
			want: DefaultLogger,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Same(t, tt.want, Logger(tt.ctx))
		})
	}
}

func TestLoggingFunctions(t *testing.T) {
	var buf bytes.Buffer

	ctx := New(context.Background(), slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))

	tests := []struct {
		name    string
		logFunc func(context.Context, string, ...any)
		level   string
	}{
		{name: "info", logFunc: Info, level: "INFO"},
		{name: "debug", logFunc: Debug, level: "DEBUG"},
		{name: "warn", logFunc: Warn, level: "WARN"},
		{name: "error", logFunc: Error, level: "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc(ctx, "script line failed", "line", 2)

			assert.Contains(t, buf.String(), tt.level)
			assert.Contains(t, buf.String(), "script line failed")
			assert.Contains(t, buf.String(), "line=2")
		})
	}
}

func TestLogLevelFromEnv(t *testing.T) {
	tests := []struct {
		envValue string
		want     slog.Level
	}{
		{envValue: "DEBUG", want: slog.LevelDebug},
		{envValue: "debug", want: slog.LevelDebug},
		{envValue: "INFO", want: slog.LevelInfo},
		{envValue: "WARN", want: slog.LevelWarn},
		{envValue: "ERROR", want: slog.LevelError},
		{envValue: "INVALID", want: slog.LevelInfo},
		{envValue: "", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run("value_"+tt.envValue, func(t *testing.T) {
			t.Setenv(LogLevelEnvVar, tt.envValue)
			assert.Equal(t, tt.want, logLevelFromEnv())
		})
	}
}

func TestNewForWriter(t *testing.T) {
	originalLevel := LevelVar.Level()
	defer LevelVar.Set(originalLevel)

	LevelVar.Set(slog.LevelDebug)

	var buf bytes.Buffer

	ctx := NewForWriter(context.Background(), &buf)
	Debug(ctx, "state transition", "to", "Loaded")

	out := buf.String()
	assert.Contains(t, out, "DEBUG:")
	assert.Contains(t, out, "state transition")
	assert.Contains(t, out, `"to": "Loaded"`)
	assert.NotContains(t, out, "\033[", "captured output must not contain escape codes")
}
