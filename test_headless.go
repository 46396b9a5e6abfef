package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"tensorscan/internal/dispatch"
	"tensorscan/internal/safetensors"
)

type stderrLogger struct{}

func (stderrLogger) Debugf(format string, args ...interface{}) {}

func (stderrLogger) Infof(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "[INFO] "+format+"\n", args...)
}

func (stderrLogger) Warnf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "[WARN] "+format+"\n", args...)
}

func main() {
	dir, err := os.MkdirTemp("", "tensorscan-smoke-")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(dir)

	header := `{"weight":{"dtype":"F32","shape":[4,4],"data_offsets":[0,64]}}`
	buf := make([]byte, 8, 8+len(header)+64)
	binary.LittleEndian.PutUint64(buf, uint64(len(header)))
	buf = append(buf, header...)
	buf = append(buf, make([]byte, 64)...)

	if err := os.WriteFile(filepath.Join(dir, "good.safetensors"), buf, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	// Declared header length of zero, parsing must fail
	if err := os.WriteFile(filepath.Join(dir, "bad.safetensors"), make([]byte, 8), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "\n=== HEADLESS SCAN TEST ===\n")
	fmt.Fprintf(os.Stderr, "Target: %s\n", dir)
	fmt.Fprintf(os.Stderr, "Files: good.safetensors, bad.safetensors\n\n")

	reports := filepath.Join(dir, "reports")
	d := &dispatch.Dispatcher{
		Handler: safetensors.NewInspector(stderrLogger{}, reports),
		Logger:  stderrLogger{},
	}

	stats, err := d.Dispatch(context.Background(), dir, "safetensors")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "\n=== VERIFICATION ===\n")
	if stats.Processed == 1 && stats.Failed == 1 && stats.Skipped == 0 {
		fmt.Fprintf(os.Stderr, "✅ Counts: %d processed, %d failed\n", stats.Processed, stats.Failed)
	} else {
		fmt.Fprintf(os.Stderr, "❌ Unexpected counts: %+v\n", *stats)
	}

	reportPath := filepath.Join(reports, "good.safetensors.json")
	if _, err := os.Stat(reportPath); err == nil {
		fmt.Fprintf(os.Stderr, "✅ Report written: %s\n", reportPath)
	} else {
		fmt.Fprintf(os.Stderr, "❌ Report NOT written\n")
	}

	if _, err := os.Stat(filepath.Join(reports, "bad.safetensors.json")); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "✅ No report for the corrupt file\n")
	} else {
		fmt.Fprintf(os.Stderr, "❌ Corrupt file produced a report\n")
	}
}
