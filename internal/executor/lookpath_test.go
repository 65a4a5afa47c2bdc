// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package executor

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, mode os.FileMode) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), mode))
}

func TestLookPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping exec bit tests on windows")
	}

	dirA := t.TempDir()
	dirB := t.TempDir()

	writeFile(t, filepath.Join(dirA, "notexec"), 0o644)
	writeFile(t, filepath.Join(dirB, "notexec"), 0o755)
	writeFile(t, filepath.Join(dirB, "tool"), 0o755)
	require.NoError(t, os.Mkdir(filepath.Join(dirA, "tool"), 0o755))

	tests := []struct {
		name    string
		command string
		cwd     string
		path    string
		want    string
		wantErr error
	}{
		{
			name:    "found in path",
			command: "tool",
			path:    dirB,
			want:    filepath.Join(dirB, "tool"),
		},
		{
			name:    "directory with the same name is skipped",
			command: "tool",
			path:    dirA + string(os.PathListSeparator) + dirB,
			want:    filepath.Join(dirB, "tool"),
		},
		{
			name:    "non executable file is skipped",
			command: "notexec",
			path:    dirA + string(os.PathListSeparator) + dirB,
			want:    filepath.Join(dirB, "notexec"),
		},
		{
			name:    "not found",
			command: "nonexistentcommand",
			path:    dirA,
			wantErr: ErrCommandNotFound,
		},
		{
			name:    "empty path list",
			command: "tool",
			path:    "",
			wantErr: ErrCommandNotFound,
		},
		{
			name:    "absolute path is used as given",
			command: filepath.Join(dirB, "tool"),
			path:    "",
			want:    filepath.Join(dirB, "tool"),
		},
		{
			name:    "relative path resolves against cwd",
			command: "./tool",
			cwd:     dirB,
			want:    filepath.Join(dirB, "tool"),
		},
		{
			name:    "path to non executable file",
			command: filepath.Join(dirA, "notexec"),
			wantErr: ErrCommandNotFound,
		},
		{
			name:    "empty command",
			command: "",
			wantErr: ErrNoArguments,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LookPath(tt.command, tt.cwd, tt.path)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
