package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// writeTree creates the given relative paths under root. Entries ending in
// "/" become directories, everything else becomes a small regular file.
func writeTree(t *testing.T, root string, entries []string) {
	t.Helper()
	for _, e := range entries {
		path := filepath.Join(root, e)
		if strings.HasSuffix(e, "/") {
			if err := os.MkdirAll(path, 0755); err != nil {
				t.Fatalf("failed to create directory: %v", err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create directory: %v", err)
		}
		if err := os.WriteFile(path, []byte("test content"), 0644); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}
	}
}

func TestWalk(t *testing.T) {
	// Create test directory structure:
	// tmpDir/
	//   alpha.safetensors
	//   model.SAFETENSORS (case check)
	//   notes.txt
	//   sub/
	//     beta.safetensors
	//     deep/
	//       gamma.safetensors
	//   zz.safetensors
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, []string{
		"alpha.safetensors",
		"model.SAFETENSORS",
		"notes.txt",
		"sub/beta.safetensors",
		"sub/deep/gamma.safetensors",
		"zz.safetensors",
	})

	tests := []struct {
		name      string
		extension string
		want      []string // Relative paths in expected visit order
	}{
		{
			name:      "extension without dot",
			extension: "safetensors",
			want: []string{
				"alpha.safetensors",
				"sub/beta.safetensors",
				"sub/deep/gamma.safetensors",
				"zz.safetensors",
			},
		},
		{
			name:      "extension with dot",
			extension: ".safetensors",
			want: []string{
				"alpha.safetensors",
				"sub/beta.safetensors",
				"sub/deep/gamma.safetensors",
				"zz.safetensors",
			},
		},
		{
			name:      "different extension",
			extension: "txt",
			want:      []string{"notes.txt"},
		},
		{
			name:      "empty extension matches everything",
			extension: "",
			want: []string{
				"alpha.safetensors",
				"model.SAFETENSORS",
				"notes.txt",
				"sub/beta.safetensors",
				"sub/deep/gamma.safetensors",
				"zz.safetensors",
			},
		},
		{
			name:      "no matches",
			extension: "md",
			want:      []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []string{}
			err := Walk(tmpDir, tt.extension, func(path string) error {
				rel, relErr := filepath.Rel(tmpDir, path)
				if relErr != nil {
					t.Fatalf("failed to relativize %q: %v", path, relErr)
				}
				got = append(got, filepath.ToSlash(rel))
				return nil
			})
			if err != nil {
				t.Fatalf("Walk() error = %v", err)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("Walk() visited %v, want %v", got, tt.want)
			}
		})
	}
}

// TestWalk_MissingRoot tests that a nonexistent root fails structurally.
func TestWalk_MissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "missing")

	calls := 0
	err := Walk(root, "safetensors", func(path string) error {
		calls++
		return nil
	})
	if err == nil {
		t.Fatal("Walk() error = nil, want *WalkError")
	}

	var walkErr *WalkError
	if !errors.As(err, &walkErr) {
		t.Fatalf("Walk() error = %T, want *WalkError", err)
	}
	if walkErr.Path != root {
		t.Errorf("WalkError.Path = %q, want %q", walkErr.Path, root)
	}
	if calls != 0 {
		t.Errorf("callback invoked %d times, want 0", calls)
	}
}

// TestWalk_CallbackError tests that callback errors abort the walk and
// propagate unchanged.
func TestWalk_CallbackError(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, []string{
		"a.safetensors",
		"b.safetensors",
		"c.safetensors",
	})

	sentinel := errors.New("stop here")
	calls := 0
	err := Walk(tmpDir, "safetensors", func(path string) error {
		calls++
		return sentinel
	})

	if !errors.Is(err, sentinel) {
		t.Errorf("Walk() error = %v, want %v", err, sentinel)
	}
	if calls != 1 {
		t.Errorf("callback invoked %d times, want 1", calls)
	}
}

// TestWalk_UnreadableSubdir tests that an unreadable directory aborts the
// walk with a structural error.
func TestWalk_UnreadableSubdir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not enforced the same way on Windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("running as root, permission checks are bypassed")
	}

	tmpDir := t.TempDir()
	writeTree(t, tmpDir, []string{
		"a.safetensors",
		"locked/b.safetensors",
	})

	locked := filepath.Join(tmpDir, "locked")
	if err := os.Chmod(locked, 0000); err != nil {
		t.Fatalf("failed to chmod: %v", err)
	}
	defer os.Chmod(locked, 0755)

	err := Walk(tmpDir, "safetensors", func(path string) error {
		return nil
	})
	if err == nil {
		t.Fatal("Walk() error = nil, want *WalkError")
	}

	var walkErr *WalkError
	if !errors.As(err, &walkErr) {
		t.Fatalf("Walk() error = %T, want *WalkError", err)
	}
	if walkErr.Path != locked {
		t.Errorf("WalkError.Path = %q, want %q", walkErr.Path, locked)
	}
}

// TestWalk_SkipsSymlinks tests that neither symlinked files nor symlinked
// directories are followed.
func TestWalk_SkipsSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires elevated privileges on Windows")
	}

	tmpDir := t.TempDir()
	writeTree(t, tmpDir, []string{
		"real.safetensors",
		"outside/target.safetensors",
	})

	// Symlink to a matching file and to a directory containing one.
	if err := os.Symlink(filepath.Join(tmpDir, "real.safetensors"), filepath.Join(tmpDir, "link.safetensors")); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}
	if err := os.Symlink(filepath.Join(tmpDir, "outside"), filepath.Join(tmpDir, "dirlink")); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}

	var got []string
	err := Walk(tmpDir, "safetensors", func(path string) error {
		got = append(got, filepath.Base(path))
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	want := []string{"target.safetensors", "real.safetensors"}
	// Lexical order: outside/ sorts before real.safetensors.
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Walk() visited %v, want %v", got, want)
	}
}
