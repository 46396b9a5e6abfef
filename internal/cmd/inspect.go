package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tensorscan/internal/modelcard"
	"tensorscan/internal/safetensors"
)

// NewInspectCommand creates the 'tensorscan inspect' command
func NewInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show the header of a single weights file",
		Long: `Decode one safetensors header and display its contents:
  - Tensor table (name, dtype, shape, bytes)
  - Parameter and byte totals
  - File-level metadata
  - The model card next to the file, if present`,
		Args: cobra.ExactArgs(1),
		RunE: runInspect,
	}

	cmd.Flags().Bool("json", false, "Emit the report as JSON")

	return cmd
}

// runInspect executes the inspect command
func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]
	output := cmd.OutOrStdout()

	header, err := safetensors.ReadFileHeader(path)
	if err != nil {
		return err
	}

	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		data, err := json.MarshalIndent(safetensors.BuildReport(path, header), "", "  ")
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		fmt.Fprintln(output, string(data))
		return nil
	}

	printHeader(output, path, header)

	// The model card lives next to the weights; its absence or failure
	// never fails an inspect
	if card, cardErr := modelcard.Load(filepath.Dir(path)); cardErr == nil && card != nil {
		printCard(output, card)
	}

	return nil
}

// printHeader formats and prints the decoded header
func printHeader(w io.Writer, path string, header *safetensors.Header) {
	cyan := color.New(color.FgCyan, color.Bold)
	gray := color.New(color.FgHiBlack)

	cyan.Fprintf(w, "\n=== %s ===\n\n", path)
	fmt.Fprintf(w, "Tensors: %d\n", len(header.Tensors))
	fmt.Fprintf(w, "Parameters: %s ", safetensors.FormatParamCount(header.ParamCount()))
	gray.Fprintf(w, "(%d)\n", header.ParamCount())
	fmt.Fprintf(w, "Tensor data: %d bytes\n", header.TotalByteSize())

	if len(header.Metadata) > 0 {
		fmt.Fprintf(w, "\nMetadata:\n")
		keys := make([]string, 0, len(header.Metadata))
		for k := range header.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %s: %s\n", k, header.Metadata[k])
		}
	}

	if len(header.Tensors) > 0 {
		fmt.Fprintf(w, "\nTensors:\n")
		for _, name := range header.TensorNames() {
			info := header.Tensors[name]
			fmt.Fprintf(w, "  %-40s %-6s %-16s %d bytes\n",
				name, info.DType, formatShape(info.Shape), info.ByteSize())
		}
	}

	fmt.Fprintln(w)
}

// formatShape renders a tensor shape like [2, 3]; a scalar renders as []
func formatShape(shape []int64) string {
	parts := make([]string, len(shape))
	for i, dim := range shape {
		parts[i] = strconv.FormatInt(dim, 10)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// printCard prints the model card summary
func printCard(w io.Writer, card *modelcard.Card) {
	cyan := color.New(color.FgCyan, color.Bold)

	cyan.Fprintf(w, "Model card:\n")
	if card.Title != "" {
		fmt.Fprintf(w, "  Title: %s\n", card.Title)
	}
	if card.Description != "" {
		// Keep long descriptions compact
		const maxDescLen = 200
		desc := card.Description
		if len(desc) > maxDescLen {
			desc = desc[:maxDescLen] + "..."
		}
		fmt.Fprintf(w, "  %s\n", desc)
	}
	if card.License != "" {
		fmt.Fprintf(w, "  License: %s\n", card.License)
	}
	if len(card.Tags) > 0 {
		fmt.Fprintf(w, "  Tags: %s\n", strings.Join(card.Tags, ", "))
	}
	fmt.Fprintln(w)
}
