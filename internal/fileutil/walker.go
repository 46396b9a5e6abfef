package fileutil

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// WalkError reports a structural failure while traversing a directory tree,
// such as a missing root or an unreadable subdirectory.
type WalkError struct {
	Path string // Directory or entry that could not be read
	Err  error  // Underlying cause
}

// Error implements the error interface for WalkError.
func (e *WalkError) Error() string {
	return fmt.Sprintf("walk %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error for error wrapping support.
func (e *WalkError) Unwrap() error {
	return e.Err
}

// WalkFunc is invoked once per matching file. Returning a non-nil error
// aborts the walk and the error is returned unchanged.
type WalkFunc func(path string) error

// Walk traverses the directory tree rooted at root in lexical order and
// invokes fn for every regular file whose extension matches extension.
// The extension may be given with or without the leading dot; an empty
// extension matches every file. Matching is case-sensitive.
//
// Symlinks are not followed and non-regular files are skipped. Structural
// failures abort the walk with a *WalkError, while errors returned by fn
// propagate unchanged.
func Walk(root, extension string, fn WalkFunc) error {
	want := strings.TrimPrefix(extension, ".")

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return &WalkError{Path: path, Err: err}
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if want != "" && strings.TrimPrefix(filepath.Ext(path), ".") != want {
			return nil
		}
		return fn(path)
	})
}
