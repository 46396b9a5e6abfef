package safetensors

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"tensorscan/internal/filelock"
)

// Logger is the subset of the scan logger the inspector reports through.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
}

// Report is the sidecar document describing one inspected file.
type Report struct {
	Path        string                `json:"path"`
	TensorCount int                   `json:"tensor_count"`
	ParamCount  int64                 `json:"param_count"`
	DataBytes   int64                 `json:"data_bytes"`
	DTypes      map[string]int        `json:"dtypes"`
	Metadata    map[string]string     `json:"metadata,omitempty"`
	Tensors     map[string]TensorInfo `json:"tensors"`
	GeneratedAt time.Time             `json:"generated_at"`
}

// BuildReport assembles the report for a header parsed from path.
func BuildReport(path string, header *Header) *Report {
	return &Report{
		Path:        path,
		TensorCount: len(header.Tensors),
		ParamCount:  header.ParamCount(),
		DataBytes:   header.TotalByteSize(),
		DTypes:      header.DTypeCounts(),
		Metadata:    header.Metadata,
		Tensors:     header.Tensors,
		GeneratedAt: time.Now().UTC(),
	}
}

// Inspector decodes the header of each candidate file during a scan and,
// when a sidecar directory is configured, writes one JSON report per file.
// It is the handler the dispatcher runs.
type Inspector struct {
	logger     Logger
	sidecarDir string
}

// NewInspector returns an Inspector reporting through logger. An empty
// sidecarDir disables report writing.
func NewInspector(logger Logger, sidecarDir string) *Inspector {
	return &Inspector{
		logger:     logger,
		sidecarDir: sidecarDir,
	}
}

// ReportPath returns where the sidecar report for path would be written,
// or "" when no sidecar directory is configured. Reports are keyed by base
// name, so same-named files from different directories share one report.
func (i *Inspector) ReportPath(path string) string {
	if i.sidecarDir == "" {
		return ""
	}
	return filepath.Join(i.sidecarDir, filepath.Base(path)+".json")
}

// ProcessFile inspects a single candidate file.
func (i *Inspector) ProcessFile(ctx context.Context, path string) error {
	header, err := ReadFileHeader(path)
	if err != nil {
		return err
	}

	i.logger.Infof("%s: %d tensors, %s params",
		filepath.Base(path), len(header.Tensors), FormatParamCount(header.ParamCount()))

	if i.sidecarDir == "" {
		return nil
	}

	data, err := json.MarshalIndent(BuildReport(path, header), "", "  ")
	if err != nil {
		return fmt.Errorf("encode report for %s: %w", path, err)
	}

	reportPath := i.ReportPath(path)
	if err := filelock.AtomicWrite(reportPath, data); err != nil {
		return fmt.Errorf("write report for %s: %w", path, err)
	}
	i.logger.Debugf("wrote report %s", reportPath)
	return nil
}
