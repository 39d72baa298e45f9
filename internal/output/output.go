// Copyright 2021, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package output writes generated files so that a file on disk is always
// either the previous version or the complete new version.
package output

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
)

// Result describes what a write did.
type Result int

const (
	// Written means the file was created or replaced.
	Written Result = iota
	// Unchanged means the file already had identical content.
	Unchanged
	// Skipped means the file exists and overwriting was disabled.
	Skipped
)

func (r Result) String() string {
	switch r {
	case Written:
		return "written"
	case Unchanged:
		return "unchanged"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Exists reports whether fp exists, without following symlinks.
func Exists(fp string) bool {
	_, err := os.Lstat(fp)
	return err == nil
}

// WriteFile atomically writes data to fp.
// If fp exists and overwrite is false, nothing is written.
// If fp already holds data, it is left untouched.
func WriteFile(fp string, data []byte, overwrite bool) (Result, error) {
	if Exists(fp) && !overwrite {
		return Skipped, nil
	}
	if b, err := os.ReadFile(fp); err == nil && bytes.Equal(b, data) {
		return Unchanged, nil
	}
	err := writeAtomic(fp, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
	if err != nil {
		return 0, err
	}
	return Written, nil
}

// Create atomically writes the output of write to fp.
// If fp exists and overwrite is false, write is not called.
func Create(fp string, overwrite bool, write func(io.Writer) error) (Result, error) {
	if Exists(fp) && !overwrite {
		return Skipped, nil
	}
	if err := writeAtomic(fp, write); err != nil {
		return 0, err
	}
	return Written, nil
}

// writeAtomic writes to a temporary file in the same directory as fp
// and renames it into place once it is complete.
func writeAtomic(fp string, write func(io.Writer) error) (err error) {
	f, err := os.CreateTemp(filepath.Dir(fp), "."+filepath.Base(fp)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()
	if err := write(f); err != nil {
		return err
	}
	if err := f.Chmod(0664); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), fp)
}

// MkdirAll creates every directory in dirs.
func MkdirAll(dirs ...string) error {
	var errs []error
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0775); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Symlink creates dst pointing to src, unless dst already exists.
// Both paths are made absolute.
func Symlink(src, dst string) (Result, error) {
	src, err := filepath.Abs(src)
	if err != nil {
		return 0, err
	}
	dst, err = filepath.Abs(dst)
	if err != nil {
		return 0, err
	}
	if Exists(dst) {
		return Skipped, nil
	}
	if err := os.Symlink(src, dst); err != nil {
		return 0, err
	}
	return Written, nil
}
