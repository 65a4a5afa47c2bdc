// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package source turns a script argument into a local file path.
// Plain paths are used as given. Anything else is treated as a go-getter
// URL and downloaded to a temporary directory first.
// See https://github.com/hashicorp/go-getter for the URL syntax.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-getter/v2"
	"github.com/matt-FFFFFF/cmdscript/internal/ctxlog"
	"github.com/matt-FFFFFF/cmdscript/internal/script"
)

// ErrFetch is returned when a remote script cannot be downloaded.
var ErrFetch = errors.New("failed to fetch script")

const (
	goGetterPathSeparator = "//"
	goGetterRefSeparator  = "?"
	goGetterForce         = "::"
	urlScheme             = "://"
	minimumGetterParts    = 3 // Minimum parts in a go-getter URL: scheme, host, and path
)

// Resolve returns a local path for src and a function that removes anything
// downloaded. The cleanup function is never nil.
// Fetch failures are joined with script.ErrScriptFileUnreadable.
func Resolve(ctx context.Context, src string) (string, func(), error) {
	noop := func() {}

	if IsLocal(src) {
		return src, noop, nil
	}

	ctxlog.Debug(ctx, "fetching remote script", "source", src)

	tmpDir, err := os.MkdirTemp("", "cmdscript-getter-*")
	if err != nil {
		return "", noop, errors.Join(script.ErrScriptFileUnreadable, ErrFetch, err)
	}

	cleanup := func() {
		os.RemoveAll(tmpDir) //nolint:errcheck
	}

	path, err := fetch(ctx, src, tmpDir)
	if err != nil {
		cleanup()
		return "", noop, errors.Join(script.ErrScriptFileUnreadable, ErrFetch, err)
	}

	return path, cleanup, nil
}

// IsLocal reports whether src is a plain file path rather than a go-getter URL.
// An empty src is local: it is rejected later as a missing argument.
func IsLocal(src string) bool {
	if src == "" {
		return true
	}

	if strings.Contains(src, goGetterForce) || strings.Contains(src, urlScheme) {
		return false
	}

	wd, err := os.Getwd()
	if err != nil {
		return true
	}

	ok, err := getter.Detect(&getter.Request{Src: src, Pwd: wd}, &getter.FileGetter{})

	return ok && err == nil
}

// fetch downloads the directory holding the script named by url into dir
// and returns the local path of the script.
func fetch(ctx context.Context, url, dir string) (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	client := getter.Client{
		DisableSymlinks: true,
	}

	req := &getter.Request{
		Src:     url,
		Dst:     filepath.Join(dir, "g"),
		Pwd:     wd,
		GetMode: getter.ModeDir,
	}

	// Getters work on directories, so fetch the parent and pick the file out of it.
	// https://github.com/hashicorp/go-getter/issues/98
	newURL, fileName := splitFileNameFromGetterURL(url)
	if newURL == "" || fileName == "" {
		return "", fmt.Errorf("invalid URL format: %s", url)
	}

	req.Src = newURL

	res, err := client.Get(ctx, req)
	if err != nil {
		return "", err
	}

	return filepath.Join(res.Dst, fileName), nil
}

// splitFileNameFromGetterURL splits the URL into the directory and file name.
// It returns the new getter URL without the file name and the file name itself.
// It will append any ref query parameter to the new URL if it exists.
func splitFileNameFromGetterURL(url string) (string, string) {
	var ref string

	parts := strings.Split(url, goGetterPathSeparator)
	if len(parts) < minimumGetterParts {
		return "", ""
	}

	last := parts[len(parts)-1]
	if before, after, found := strings.Cut(last, goGetterRefSeparator); found {
		ref = after
		last = before
	}

	if last == "" || filepath.Clean(last) == filepath.Dir(last) {
		return "", ""
	}

	fileName := filepath.Base(last)
	parts[len(parts)-1] = filepath.Dir(last)

	if parts[len(parts)-1] == "." {
		parts = parts[:len(parts)-1]
	}

	newURL := strings.Join(parts, goGetterPathSeparator)

	if ref != "" {
		newURL += goGetterRefSeparator + ref
	}

	return newURL, fileName
}
