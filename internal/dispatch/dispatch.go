// Package dispatch routes a scan target to the directory, glob, or
// single-file flow and applies the per-file failure policy.
//
// The target itself is normalized before anything else; a target that
// cannot be normalized aborts the dispatch. A normalized path naming an
// existing directory is walked recursively, a raw string containing glob
// metacharacters is expanded lazily, and anything else is treated as a
// single file. Batch candidates are normalized individually before they
// reach the handler. Handler failures and candidate normalization failures
// are logged and counted but never abort a scan; only structural failures
// (an unresolvable target, unreadable directory trees, malformed patterns,
// cancellation) are returned to the caller.
package dispatch

import (
	"context"
	"os"

	"tensorscan/internal/fileutil"
	"tensorscan/internal/pathutil"
)

// Per-file outcome statuses as recorded in scan history.
const (
	StatusProcessed = "processed"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// Dispatch modes as classified from the raw target.
const (
	ModeFile      = "file"
	ModeDirectory = "directory"
	ModeGlob      = "glob"
)

// Mode reports how a raw target will be dispatched. Directories win over
// everything, then glob metacharacters; anything else is a single file.
// A target that cannot be stat'd is still classified, the handler owns
// reporting its absence.
func Mode(raw string) string {
	if info, err := os.Stat(raw); err == nil && info.IsDir() {
		return ModeDirectory
	}
	if fileutil.HasMeta(raw) {
		return ModeGlob
	}
	return ModeFile
}

// Handler processes a single candidate file.
type Handler interface {
	ProcessFile(ctx context.Context, path string) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, path string) error

// ProcessFile calls f(ctx, path).
func (f HandlerFunc) ProcessFile(ctx context.Context, path string) error {
	return f(ctx, path)
}

// Logger is the minimal logging surface the dispatcher needs.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// Recorder receives the outcome of every candidate file. Implementations
// must not assume any particular call order beyond per-candidate sequencing.
type Recorder interface {
	RecordFile(path, status, detail string) error
}

// Stats counts per-candidate outcomes for one dispatch.
type Stats struct {
	Processed int // Candidates the handler accepted
	Failed    int // Candidates the handler rejected
	Skipped   int // Candidates that could not be normalized
}

// Total returns the number of candidates considered.
func (s *Stats) Total() int {
	return s.Processed + s.Failed + s.Skipped
}

// Dispatcher routes targets to the appropriate flow and shields the scan
// from per-file failures.
type Dispatcher struct {
	Handler  Handler
	Logger   Logger
	Recorder Recorder // optional, may be nil
}

// Dispatch normalizes raw, classifies it, and feeds every candidate file to
// the handler. The wildcard check runs against the raw string, so a pattern
// is recognized even though normalization treats it as an ordinary path.
// The extension filter applies only to the directory flow; glob matches and
// explicit file arguments are dispatched as given.
//
// The returned error is nil unless raw was unresolvable, the traversal
// itself failed, or ctx was cancelled. Per-file failures are reflected in
// Stats only.
func (d *Dispatcher) Dispatch(ctx context.Context, raw, extension string) (*Stats, error) {
	stats := &Stats{}

	root, err := pathutil.Normalize(raw)
	if err != nil {
		return stats, err
	}

	if info, statErr := os.Stat(root); statErr == nil && info.IsDir() {
		d.Logger.Debugf("dispatching directory %s", root)
		err := fileutil.Walk(root, extension, func(path string) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			d.runHandler(ctx, path, stats)
			return nil
		})
		return stats, err
	}

	if fileutil.HasMeta(raw) {
		d.Logger.Debugf("dispatching glob %s", raw)
		err := fileutil.GlobWalk(raw, func(match string, walkErr error) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if walkErr != nil {
				d.Logger.Warnf("Failed to read glob entry: %v", walkErr)
				return nil
			}
			d.runHandler(ctx, match, stats)
			return nil
		})
		return stats, err
	}

	d.Logger.Debugf("dispatching file %s", root)
	if err := ctx.Err(); err != nil {
		return stats, err
	}
	d.runHandler(ctx, root, stats)
	return stats, nil
}

// runHandler normalizes one candidate and applies the continue-on-error
// policy: per-file failures are logged and counted, never propagated.
func (d *Dispatcher) runHandler(ctx context.Context, candidate string, stats *Stats) {
	path, err := pathutil.Normalize(candidate)
	if err != nil {
		stats.Skipped++
		d.Logger.Warnf("Skipping %s: %v", candidate, err)
		d.record(candidate, StatusSkipped, err.Error())
		return
	}

	if err := d.Handler.ProcessFile(ctx, path); err != nil {
		stats.Failed++
		d.Logger.Warnf("Failed to process file %s: %v", path, err)
		d.record(path, StatusFailed, err.Error())
		return
	}

	stats.Processed++
	d.record(path, StatusProcessed, "")
}

// record forwards one outcome to the recorder, if any. Recording failures
// never affect the scan.
func (d *Dispatcher) record(path, status, detail string) {
	if d.Recorder == nil {
		return
	}
	if err := d.Recorder.RecordFile(path, status, detail); err != nil {
		d.Logger.Debugf("failed to record outcome for %s: %v", path, err)
	}
}
