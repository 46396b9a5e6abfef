package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for tensorscan
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tensorscan [file|directory|pattern]",
		Short: "Scan model weight files and report their contents",
		Long: `Tensorscan inspects safetensors checkpoint files: it decodes each file's
header and reports tensor counts, parameter totals and metadata.

A single argument selects the scan flow. An existing directory is walked
recursively for weight files, an argument containing glob metacharacters
(*, ?, [, {) is expanded lazily, and anything else is treated as a single
file. Files that fail to parse are warned about and skipped; the scan
always continues.

Configuration is loaded from .tensorscan/config.yaml if present.
CLI flags override configuration file settings.

Examples:
  # Scan a single checkpoint
  tensorscan model.safetensors

  # Walk a directory tree (collects *.safetensors files)
  tensorscan ./checkpoints

  # Expand a glob pattern lazily
  tensorscan "models/**/*.safetensors"

  # Write one JSON report per scanned file
  tensorscan --sidecar-dir ./reports ./checkpoints

  # Other options
  tensorscan --ext gguf ./models             # Collect a different extension
  tensorscan --dry-run ./checkpoints         # List candidates without parsing
  tensorscan --no-history model.safetensors  # Skip history recording`,
		Version:      Version,
		Args:         cobra.MaximumNArgs(1),
		RunE:         runScan,
		SilenceUsage: true,
	}

	cmd.Flags().String("config", "", "Path to config file (default: .tensorscan/config.yaml)")
	cmd.Flags().String("ext", "", "File extension collected under directory roots")
	cmd.Flags().String("log-level", "", "Log verbosity: trace, debug, info, warn, error")
	cmd.Flags().Bool("no-color", false, "Disable colored output")
	cmd.Flags().String("sidecar-dir", "", "Directory for per-file JSON reports")
	cmd.Flags().Bool("dry-run", false, "List candidate files without parsing them")
	cmd.Flags().Bool("no-history", false, "Do not record this scan in history")

	cmd.AddCommand(NewInspectCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
