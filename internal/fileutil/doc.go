// Package fileutil provides centralized directory traversal and glob matching utilities.
//
// This package serves as a single source of truth for file discovery in tensorscan,
// offering recursive extension-filtered walking and lazy glob expansion with
// clearly separated failure domains.
//
// # Purpose
//
// The fileutil package is designed for:
//   - Recursive directory traversal with extension filtering
//   - Lazy glob expansion with shell-style wildcards
//   - Deterministic, lexically ordered results
//   - Clean separation of structural failures from per-file failures
//
// # Key Features
//
//   - Recursive walking rooted at any directory
//   - Extension filtering with or without the leading dot (".safetensors" or "safetensors")
//   - Glob matching via github.com/bmatcuk/doublestar, including "**" patterns
//   - Eager validation of glob syntax before any filesystem access
//   - Lazy, callback-driven iteration (no intermediate slice of all matches)
//   - Sorted, deterministic output (lexical traversal order)
//   - Symlinks are never followed; only regular files are handed to walk callbacks
//
// # Main Components
//
// Walk - Recursive traversal that invokes a callback per matching file:
//   - Structural failures (missing root, unreadable directory) abort the walk
//     and surface as *WalkError
//   - Callback errors are returned unchanged, so callers choose their own
//     continue-or-abort policy
//
// GlobWalk - Lazy glob expansion that invokes a callback per match:
//   - Malformed patterns fail eagerly with *GlobSyntaxError before the first callback
//   - Unreadable entries are reported through the callback and iteration continues
//
// HasMeta - Reports whether a string contains glob metacharacters
//
// ValidPattern - Reports whether a glob pattern is syntactically well formed
//
// # Usage Examples
//
// Recursive extension-filtered walk:
//
//	err := fileutil.Walk("/path/to/models", "safetensors", func(path string) error {
//	    fmt.Println(path)
//	    return nil
//	})
//
// Lazy glob expansion, tolerating unreadable entries:
//
//	err := fileutil.GlobWalk("models/**/*.safetensors", func(match string, walkErr error) error {
//	    if walkErr != nil {
//	        log.Printf("skipping: %v", walkErr)
//	        return nil
//	    }
//	    fmt.Println(match)
//	    return nil
//	})
//
// # Design Principles
//
// Single Source of Truth:
// This package centralizes file discovery to avoid duplicated logic across the
// codebase. Any traversal or pattern expansion should use this package rather
// than implementing custom filepath.WalkDir logic.
//
// Failure Domains:
// Walk distinguishes structural failures from callback failures. A missing root
// or an unreadable directory means the traversal itself is broken and aborts
// with *WalkError. An error returned by the callback belongs to the caller and
// passes through unchanged. GlobWalk inverts the policy for per-entry errors,
// reporting them through the callback so a single unreadable subtree cannot
// hide the remaining matches.
//
// Deterministic Output:
// Both Walk and GlobWalk visit entries in lexical order, ensuring identical
// results across runs and platforms. This is critical for testing and
// consistent behavior.
//
// Laziness:
// Matches are delivered one at a time through callbacks. No function in this
// package accumulates the full match set, so early termination does not pay
// for untraversed subtrees.
package fileutil
