// Package pathutil converts user-supplied paths into absolute canonical form.
//
// Normalization prefers filesystem canonicalization, which resolves symlinks
// and dot components but requires every component to exist on disk. Paths
// that do not exist yet are reduced lexically instead, so callers always
// receive an absolute path free of "." and ".." components.
package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FailureKind classifies why a path could not be normalized.
type FailureKind int

const (
	// KindUnresolvable covers paths that cannot be made absolute at all,
	// such as paths containing a NUL byte or failures to resolve the
	// working directory.
	KindUnresolvable FailureKind = iota
	// KindEscapesRoot covers paths whose ".." components climb above the
	// filesystem root.
	KindEscapesRoot
)

// String returns the string representation of FailureKind.
func (k FailureKind) String() string {
	switch k {
	case KindUnresolvable:
		return "unresolvable"
	case KindEscapesRoot:
		return "escapes-root"
	default:
		return "unknown"
	}
}

// NormalizeError reports a path that could not be normalized.
type NormalizeError struct {
	Kind FailureKind // Failure classification
	Path string      // The path as supplied by the caller
	Err  error       // Underlying cause
}

// Error implements the error interface for NormalizeError.
func (e *NormalizeError) Error() string {
	if e.Kind == KindEscapesRoot {
		return fmt.Sprintf("normalize %s: path escapes filesystem root: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("normalize %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error for error wrapping support.
func (e *NormalizeError) Unwrap() error {
	return e.Err
}

// Normalize converts path into absolute canonical form. Relative paths are
// resolved against the current working directory. When every component of
// the path exists on disk, symlinks are resolved by the filesystem itself;
// otherwise the path is cleaned lexically. The result never contains "."
// or ".." components, and normalizing an already-normalized path returns
// it unchanged.
//
// Returns a *NormalizeError when the path cannot be normalized.
func Normalize(path string) (string, error) {
	if strings.IndexByte(path, 0) != -1 {
		return "", &NormalizeError{
			Kind: KindUnresolvable,
			Path: path,
			Err:  errors.New("path contains NUL byte"),
		}
	}

	abs := path
	if !filepath.IsAbs(abs) {
		wd, err := os.Getwd()
		if err != nil {
			return "", &NormalizeError{
				Kind: KindUnresolvable,
				Path: path,
				Err:  fmt.Errorf("failed to resolve working directory: %w", err),
			}
		}
		// Plain concatenation keeps "." and ".." components intact so the
		// escape check below sees them. filepath.Join would collapse them
		// lexically and silently clamp at the root.
		abs = wd + string(filepath.Separator) + abs
	}

	// Canonicalization is authoritative when it succeeds, but it fails for
	// any path with a component that does not exist yet.
	canonical, canonErr := filepath.EvalSymlinks(abs)
	if canonErr == nil {
		return canonical, nil
	}

	cleaned, ok := cleanLexically(abs)
	if !ok {
		return "", &NormalizeError{
			Kind: KindEscapesRoot,
			Path: path,
			Err:  canonErr,
		}
	}
	return cleaned, nil
}

// cleanLexically removes "." components and resolves each ".." against the
// preceding component. It reports false when a ".." would climb above the
// filesystem root.
func cleanLexically(abs string) (string, bool) {
	vol := filepath.VolumeName(abs)
	sep := string(filepath.Separator)

	var kept []string
	for _, comp := range strings.Split(abs[len(vol):], sep) {
		switch comp {
		case "", ".":
			// Empty components come from doubled separators.
		case "..":
			if len(kept) == 0 {
				return "", false
			}
			kept = kept[:len(kept)-1]
		default:
			kept = append(kept, comp)
		}
	}
	return vol + sep + strings.Join(kept, sep), true
}
