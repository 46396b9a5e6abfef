//go:build ignore
// +build ignore

// Demo script to show scan dispatch and history recording in action
// Run with: go run scripts/demo-scan-history.go
package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tensorscan/internal/dispatch"
	"tensorscan/internal/history"
	"tensorscan/internal/safetensors"
)

type demoLogger struct{}

func (demoLogger) Debugf(format string, args ...interface{}) {}

func (demoLogger) Infof(format string, args ...interface{}) {
	fmt.Printf("  "+format+"\n", args...)
}

func (demoLogger) Warnf(format string, args ...interface{}) {
	fmt.Printf("  WARN: "+format+"\n", args...)
}

type demoRecorder struct {
	ctx   context.Context
	store *history.Store
	runID string
}

func (r *demoRecorder) RecordFile(path, status, detail string) error {
	return r.store.RecordFile(r.ctx, r.runID, path, status, detail)
}

func main() {
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("Tensorscan Dispatch & History Demo")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println()

	dir, err := os.MkdirTemp("", "tensorscan-demo-")
	if err != nil {
		fail(err)
	}
	defer os.RemoveAll(dir)

	writeWeights(dir, "encoder.safetensors")
	writeWeights(dir, "decoder.safetensors")
	// Corrupt: declared header length of zero
	os.WriteFile(filepath.Join(dir, "broken.safetensors"), make([]byte, 8), 0644)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not weights"), 0644)

	ctx := context.Background()

	// Demo 1: Failure Isolation
	fmt.Println(strings.Repeat("-", 60))
	fmt.Println("Demo 1: One corrupt file never stops the scan")
	fmt.Println(strings.Repeat("-", 60))

	d := &dispatch.Dispatcher{
		Handler: safetensors.NewInspector(demoLogger{}, ""),
		Logger:  demoLogger{},
	}
	stats, err := d.Dispatch(ctx, dir, "safetensors")
	if err != nil {
		fail(err)
	}
	fmt.Printf("Outcome: %d processed, %d failed, %d skipped\n\n",
		stats.Processed, stats.Failed, stats.Skipped)

	// Demo 2: History Recording
	fmt.Println(strings.Repeat("-", 60))
	fmt.Println("Demo 2: Recording outcomes to the history store")
	fmt.Println(strings.Repeat("-", 60))

	store, err := history.NewStore(filepath.Join(dir, "runs.db"))
	if err != nil {
		fail(err)
	}
	defer store.Close()

	runID, err := store.BeginRun(ctx, dir, dispatch.ModeDirectory, "safetensors")
	if err != nil {
		fail(err)
	}

	d.Recorder = &demoRecorder{ctx: ctx, store: store, runID: runID}
	stats, err = d.Dispatch(ctx, dir, "safetensors")
	if err != nil {
		fail(err)
	}
	if err := store.FinishRun(ctx, runID, stats.Processed, stats.Failed, stats.Skipped); err != nil {
		fail(err)
	}

	run, err := store.GetRun(ctx, runID)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Run %s: %d files considered in %s mode\n", runID[:8], run.Total(), run.Mode)

	fails, err := store.FailuresForRun(ctx, runID)
	if err != nil {
		fail(err)
	}
	for _, f := range fails {
		fmt.Printf("  failed: %s (%s)\n", filepath.Base(f.Path), f.Detail)
	}
	fmt.Println()

	// Demo 3: Parameter Formatting
	fmt.Println(strings.Repeat("-", 60))
	fmt.Println("Demo 3: Parameter counts the way model cards show them")
	fmt.Println(strings.Repeat("-", 60))

	for _, n := range []int64{512, 124_400_000, 7_200_000_000} {
		fmt.Printf("  %13d → %s\n", n, safetensors.FormatParamCount(n))
	}
	fmt.Println()

	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("Demo Complete!")
	fmt.Println(strings.Repeat("=", 60))
}

// writeWeights drops a small single-tensor safetensors file into dir.
func writeWeights(dir, name string) {
	header := `{"__metadata__":{"format":"pt"},"weight":{"dtype":"F32","shape":[128,64],"data_offsets":[0,32768]}}`
	buf := make([]byte, 8, 8+len(header))
	binary.LittleEndian.PutUint64(buf, uint64(len(header)))
	buf = append(buf, header...)
	buf = append(buf, make([]byte, 32768)...)

	if err := os.WriteFile(filepath.Join(dir, name), buf, 0644); err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "demo failed: %v\n", err)
	os.Exit(1)
}
