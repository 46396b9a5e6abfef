// Package safetensors reads the header section of safetensors checkpoint files.
//
// A safetensors file begins with an 8-byte little-endian length followed by a
// UTF-8 JSON header describing every tensor (name, dtype, shape, byte range)
// plus an optional "__metadata__" table of string pairs. The tensor data
// itself follows the header and is never read by this package.
package safetensors

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
)

const (
	headerLengthSize = 8

	// MaxHeaderSize caps the declared header length. Corrupt or hostile
	// files can claim arbitrarily large headers; refusing them here keeps
	// a single bad file from exhausting memory.
	MaxHeaderSize = 100 << 20 // 100 MiB
)

// metadataKey is the reserved header key holding file-level metadata.
const metadataKey = "__metadata__"

// ParseError reports a file whose contents could not be read or decoded.
// Parse failures are per-file conditions: callers processing batches are
// expected to report them and continue.
type ParseError struct {
	Path string // File that failed to parse
	Err  error  // Underlying cause
}

// Error implements the error interface for ParseError.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error for error wrapping support.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// TensorInfo describes a single tensor entry in the header.
type TensorInfo struct {
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// ElemCount returns the number of elements in the tensor. A tensor with an
// empty shape is a scalar and counts as one element.
func (t TensorInfo) ElemCount() int64 {
	count := int64(1)
	for _, dim := range t.Shape {
		count *= dim
	}
	return count
}

// ByteSize returns the number of bytes the tensor data occupies.
func (t TensorInfo) ByteSize() int64 {
	return t.DataOffsets[1] - t.DataOffsets[0]
}

// Header is the decoded safetensors header.
type Header struct {
	Metadata map[string]string     // __metadata__ entries, empty if absent
	Tensors  map[string]TensorInfo // Tensor table keyed by tensor name
}

// TensorNames returns the tensor names in sorted order.
func (h *Header) TensorNames() []string {
	names := make([]string, 0, len(h.Tensors))
	for name := range h.Tensors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParamCount returns the total number of elements across all tensors.
func (h *Header) ParamCount() int64 {
	var total int64
	for _, info := range h.Tensors {
		total += info.ElemCount()
	}
	return total
}

// TotalByteSize returns the number of bytes covered by all tensor data
// ranges combined.
func (h *Header) TotalByteSize() int64 {
	var total int64
	for _, info := range h.Tensors {
		total += info.ByteSize()
	}
	return total
}

// DTypeCounts returns how many tensors use each dtype.
func (h *Header) DTypeCounts() map[string]int {
	counts := make(map[string]int)
	for _, info := range h.Tensors {
		counts[info.DType]++
	}
	return counts
}

// FormatParamCount renders a parameter total the way model cards do,
// e.g. 124.4M or 7.2B.
func FormatParamCount(n int64) string {
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(n)/1_000_000_000)
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// ParseHeader decodes a safetensors header from r. It reads exactly the
// 8-byte length prefix and the JSON header, leaving r positioned at the
// start of the tensor data.
func ParseHeader(r io.Reader) (*Header, error) {
	var lengthBuf [headerLengthSize]byte
	if _, err := io.ReadFull(r, lengthBuf[:]); err != nil {
		return nil, fmt.Errorf("read header length: %w", err)
	}

	headerLen := binary.LittleEndian.Uint64(lengthBuf[:])
	if headerLen == 0 {
		return nil, fmt.Errorf("header length is zero")
	}
	if headerLen > MaxHeaderSize {
		return nil, fmt.Errorf("header length %d exceeds maximum %d", headerLen, int64(MaxHeaderSize))
	}

	headerBuf := make([]byte, headerLen)
	if _, err := io.ReadFull(r, headerBuf); err != nil {
		return nil, fmt.Errorf("read header (%d bytes): %w", headerLen, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(headerBuf, &raw); err != nil {
		return nil, fmt.Errorf("decode header JSON: %w", err)
	}

	header := &Header{
		Metadata: make(map[string]string),
		Tensors:  make(map[string]TensorInfo, len(raw)),
	}

	for key, value := range raw {
		if key == metadataKey {
			if err := json.Unmarshal(value, &header.Metadata); err != nil {
				return nil, fmt.Errorf("decode %s: %w", metadataKey, err)
			}
			continue
		}

		var info TensorInfo
		if err := json.Unmarshal(value, &info); err != nil {
			return nil, fmt.Errorf("decode tensor %q: %w", key, err)
		}
		header.Tensors[key] = info
	}

	return header, nil
}

// ReadFileHeader opens path and decodes its safetensors header. Failures
// are wrapped in a *ParseError carrying the path.
func ReadFileHeader(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	defer f.Close()

	header, err := ParseHeader(f)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return header, nil
}
