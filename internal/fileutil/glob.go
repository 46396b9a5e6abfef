package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// GlobSyntaxError reports a malformed glob pattern.
type GlobSyntaxError struct {
	Pattern string // The pattern as supplied by the caller
}

// Error implements the error interface for GlobSyntaxError.
func (e *GlobSyntaxError) Error() string {
	return fmt.Sprintf("malformed glob pattern %q", e.Pattern)
}

// GlobWalkFunc is invoked once per pattern match and once per entry that
// could not be read. Exactly one of match and walkErr is set on each call.
// Returning a non-nil error aborts the iteration and the error is returned
// unchanged.
type GlobWalkFunc func(match string, walkErr error) error

// HasMeta reports whether path contains any glob metacharacter.
func HasMeta(path string) bool {
	return strings.ContainsAny(path, "*?[{")
}

// ValidPattern reports whether pattern is syntactically well formed. It
// never touches the filesystem, so callers can reject bad patterns before
// committing any other work.
func ValidPattern(pattern string) bool {
	return doublestar.ValidatePattern(pattern)
}

// GlobWalk lazily expands pattern against the filesystem and invokes fn for
// every matching path in lexical order. Matches may be files or directories.
//
// A malformed pattern fails eagerly with *GlobSyntaxError before fn is
// called. Entries that cannot be read are reported to fn as a *WalkError
// and their subtree is skipped, so one unreadable directory does not hide
// the remaining matches. A pattern rooted in a directory that does not
// exist produces no matches and no error.
func GlobWalk(pattern string, fn GlobWalkFunc) error {
	if !doublestar.ValidatePattern(pattern) {
		return &GlobSyntaxError{Pattern: pattern}
	}

	base, rest := doublestar.SplitPattern(pattern)

	// For patterns without "**" or brace alternates the match depth is
	// fixed, so directories at that depth cannot contain further matches.
	pruneDepth := -1
	if !strings.Contains(rest, "**") && !strings.Contains(rest, "{") {
		pruneDepth = strings.Count(filepath.ToSlash(pattern), "/")
	}

	return filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == base && errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipAll
			}
			if ferr := fn("", &WalkError{Path: path, Err: err}); ferr != nil {
				return ferr
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == base {
			return nil
		}

		matched, merr := doublestar.PathMatch(pattern, path)
		if merr != nil {
			return &GlobSyntaxError{Pattern: pattern}
		}
		if matched {
			if ferr := fn(path, nil); ferr != nil {
				return ferr
			}
		}

		if d.IsDir() && pruneDepth >= 0 && strings.Count(filepath.ToSlash(path), "/") >= pruneDepth {
			return filepath.SkipDir
		}
		return nil
	})
}
