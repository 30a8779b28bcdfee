package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ppiankov/nrmlc/internal/model"
)

// ErrInputTooLarge is returned when a workspace export exceeds the size limit
var ErrInputTooLarge = errors.New("input exceeds size limit")

// Reader loads workspace exports from disk
type Reader struct {
	maxBytes int64
}

// NewReader creates a reader that refuses inputs larger than maxBytes
// (zero or negative means no limit)
func NewReader(maxBytes int64) *Reader {
	return &Reader{maxBytes: maxBytes}
}

// ReadResult holds the raw bytes and the parsed workspace
type ReadResult struct {
	Source    string
	Raw       []byte
	Workspace *model.Workspace
}

// ReadFile reads and parses the workspace export at path. "-" reads stdin.
func (r *Reader) ReadFile(ctx context.Context, path string) (*ReadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var src io.Reader
	if path == "-" {
		src = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		src = f
	}

	data, err := r.readAll(src)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return r.Parse(path, data)
}

// Parse parses an in-memory workspace export
func (r *Reader) Parse(source string, data []byte) (*ReadResult, error) {
	if r.maxBytes > 0 && int64(len(data)) > r.maxBytes {
		return nil, fmt.Errorf("%s: %w (%d > %d bytes)", source, ErrInputTooLarge, len(data), r.maxBytes)
	}

	ws, err := model.ParseWorkspace(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	return &ReadResult{Source: source, Raw: data, Workspace: ws}, nil
}

func (r *Reader) readAll(src io.Reader) ([]byte, error) {
	if r.maxBytes <= 0 {
		return io.ReadAll(src)
	}

	// one extra byte distinguishes "exactly at the limit" from "over it"
	data, err := io.ReadAll(io.LimitReader(src, r.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > r.maxBytes {
		return nil, fmt.Errorf("%w (limit %d bytes)", ErrInputTooLarge, r.maxBytes)
	}
	return data, nil
}
