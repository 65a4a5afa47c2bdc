// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package batch

import (
	"bytes"
	"encoding/gob"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/afero"
)

var (
	// ErrWriteReport is returned when a report cannot be saved.
	ErrWriteReport = errors.New("failed to write report")
	// ErrReadReport is returned when a saved report cannot be loaded.
	ErrReadReport = errors.New("failed to read report")
)

// Format is the encoding of a saved report.
type Format int

const (
	// FormatBinary is encoding/gob.
	FormatBinary Format = iota
	// FormatYAML is YAML.
	FormatYAML
)

// FormatForPath returns FormatYAML for .yaml and .yml files and FormatBinary otherwise.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatBinary
	}
}

// WriteBinary writes the report in gob encoding.
func (r *Report) WriteBinary(w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(r); err != nil {
		return errors.Join(ErrWriteReport, err)
	}

	return nil
}

// WriteYAML writes the report as YAML.
func (r *Report) WriteYAML(w io.Writer) error {
	b, err := yaml.Marshal(r)
	if err != nil {
		return errors.Join(ErrWriteReport, err)
	}

	if _, err := w.Write(b); err != nil {
		return errors.Join(ErrWriteReport, err)
	}

	return nil
}

// ReadReport decodes a report in the given format.
func ReadReport(rd io.Reader, format Format) (*Report, error) {
	report := new(Report)

	switch format {
	case FormatYAML:
		b, err := io.ReadAll(rd)
		if err != nil {
			return nil, errors.Join(ErrReadReport, err)
		}

		if err := yaml.Unmarshal(b, report); err != nil {
			return nil, errors.Join(ErrReadReport, err)
		}
	default:
		if err := gob.NewDecoder(rd).Decode(report); err != nil {
			return nil, errors.Join(ErrReadReport, err)
		}
	}

	return report, nil
}

// SaveReport writes the report to path, choosing the encoding from the file extension.
func SaveReport(fs afero.Fs, path string, r *Report) error {
	var buf bytes.Buffer

	var err error

	switch FormatForPath(path) {
	case FormatYAML:
		err = r.WriteYAML(&buf)
	default:
		err = r.WriteBinary(&buf)
	}

	if err != nil {
		return err
	}

	if err := afero.WriteFile(fs, path, buf.Bytes(), 0o644); err != nil {
		return errors.Join(ErrWriteReport, err)
	}

	return nil
}

// LoadReport reads a report saved by SaveReport.
func LoadReport(fs afero.Fs, path string) (*Report, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, errors.Join(ErrReadReport, err)
	}

	defer f.Close() //nolint:errcheck

	return ReadReport(f, FormatForPath(path))
}
