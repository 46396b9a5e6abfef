package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tensorscan/internal/safetensors"
)

func TestInspectCommand(t *testing.T) {
	forcePlainOutput(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "model.safetensors")
	writeWeights(t, path)

	stdout, _, err := execRoot(t, "inspect", path)
	require.NoError(t, err)

	assert.Contains(t, stdout, "=== "+path+" ===")
	assert.Contains(t, stdout, "Tensors: 2")
	assert.Contains(t, stdout, "Parameters: 46")
	assert.Contains(t, stdout, "Tensor data: 104 bytes")
	assert.Contains(t, stdout, "format: pt")

	// The tensor table is sorted by name
	assert.Contains(t, stdout, "embed.weight")
	assert.Contains(t, stdout, "linear.weight")
	assert.Less(t, strings.Index(stdout, "embed.weight"), strings.Index(stdout, "linear.weight"))
	assert.Contains(t, stdout, "F32")
	assert.Contains(t, stdout, "[2, 3]")
	assert.Contains(t, stdout, "24 bytes")
}

func TestInspectJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.safetensors")
	writeWeights(t, path)

	stdout, _, err := execRoot(t, "inspect", "--json", path)
	require.NoError(t, err)

	var report safetensors.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, path, report.Path)
	assert.Equal(t, 2, report.TensorCount)
	assert.Equal(t, int64(46), report.ParamCount)
	assert.Equal(t, int64(104), report.DataBytes)
	assert.Equal(t, map[string]int{"F16": 1, "F32": 1}, report.DTypes)

	info, ok := report.Tensors["linear.weight"]
	require.True(t, ok)
	assert.Equal(t, "F32", info.DType)
	assert.Equal(t, []int64{2, 3}, info.Shape)
}

func TestInspectMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.safetensors")

	_, _, err := execRoot(t, "inspect", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.safetensors")
}

func TestInspectCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.safetensors")
	writeCorruptWeights(t, path)

	_, _, err := execRoot(t, "inspect", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header length is zero")
}

func TestInspectShowsModelCard(t *testing.T) {
	forcePlainOutput(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "model.safetensors")
	writeWeights(t, path)

	readme := `---
license: apache-2.0
tags:
  - text-generation
---

# GPT-2 Small

The smallest GPT-2 variant.
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte(readme), 0o644))

	stdout, _, err := execRoot(t, "inspect", path)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Model card:")
	assert.Contains(t, stdout, "Title: GPT-2 Small")
	assert.Contains(t, stdout, "The smallest GPT-2 variant.")
	assert.Contains(t, stdout, "License: apache-2.0")
	assert.Contains(t, stdout, "Tags: text-generation")
}

func TestInspectWithoutModelCard(t *testing.T) {
	forcePlainOutput(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "model.safetensors")
	writeWeights(t, path)

	stdout, _, err := execRoot(t, "inspect", path)
	require.NoError(t, err)
	assert.NotContains(t, stdout, "Model card:")
}

func TestInspectRequiresArgument(t *testing.T) {
	_, _, err := execRoot(t, "inspect")
	require.Error(t, err)
}
