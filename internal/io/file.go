// Package ioutils provides file system utilities for h2n2flac.
//
// This package contains functions for:
//   - Existence probes that tell "absent" apart from "inaccessible"
//   - Directory creation
//   - Removal of partially written outputs
package ioutils

import (
	"errors"
	"io/fs"
	"os"
)

// Exists reports whether a file exists at path.
//
// A missing file is not an error: Exists returns (false, nil). Any other
// failure to stat the path (permission denied, I/O error, a non-directory
// path component) is returned so the caller can abort instead of treating
// the file as absent.
//
// Example:
//
//	ok, err := Exists("/card/STEREO/FOLDER01/SR001MS.WAV")
//	if err != nil {
//	    // cannot tell whether the file is there
//	}
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with mode 0755 (rwxr-xr-x).
// If the directory already exists, no error is returned.
//
// Example:
//
//	err := EnsureDir("/music/field/2024-06-01")
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// RemoveIfExists deletes the file at path. A file that is already gone is
// not an error.
//
// Used to clean up an output whose conversion failed halfway, so a rerun
// does not mistake it for a finished file.
func RemoveIfExists(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
