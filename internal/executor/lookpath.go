// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package executor

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

var windowsExts = []string{".exe", ".bat", ".cmd", ".com"}

// LookPath finds the executable for command.
// A command containing a path separator is used as given, relative to cwd.
// Otherwise each directory in pathEnv (a PATH-style list) is searched.
func LookPath(command, cwd, pathEnv string) (string, error) {
	if command == "" {
		return "", ErrNoArguments
	}

	if strings.ContainsRune(command, '/') || strings.ContainsRune(command, filepath.Separator) {
		p := command
		if !filepath.IsAbs(p) && cwd != "" {
			p = filepath.Join(cwd, p)
		}

		if found, ok := executable(p); ok {
			return found, nil
		}

		return "", fmt.Errorf("%w: %s", ErrCommandNotFound, command)
	}

	for _, dir := range filepath.SplitList(pathEnv) {
		if dir == "" {
			continue
		}

		if found, ok := executable(filepath.Join(dir, command)); ok {
			return found, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrCommandNotFound, command)
}

// executable reports whether p is an executable regular file, trying the
// usual extensions on Windows.
func executable(p string) (string, bool) {
	candidates := []string{p}
	if runtime.GOOS == "windows" && filepath.Ext(p) == "" {
		for _, ext := range windowsExts {
			candidates = append(candidates, p+ext)
		}
	}

	for _, c := range candidates {
		info, err := os.Stat(c)
		if err != nil || info.IsDir() {
			continue
		}

		if runtime.GOOS != "windows" && info.Mode()&0o111 == 0 {
			continue
		}

		return c, true
	}

	return "", false
}
