package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/nrmlc/internal/model"
)

// Renderer encodes documents and writes them out
type Renderer struct {
	indent int
}

// NewRenderer creates a renderer; indent is the number of spaces per level
// (zero writes compact JSON)
func NewRenderer(indent int) *Renderer {
	return &Renderer{indent: indent}
}

// Marshal encodes a document. HTML characters in text values are kept as-is.
func (r *Renderer) Marshal(doc *model.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if r.indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", r.indent))
	}
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile writes rendered output to path; "" or "-" writes to stdout
func (r *Renderer) WriteFile(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RenderSummary prints registry counts and diagnostics of a conversion
func (r *Renderer) RenderSummary(w io.Writer, res *ConvertResult) {
	fmt.Fprintf(w, "%s\n", res.Source)
	fmt.Fprintf(w, "  facts: %d  items: %d  versions: %d  variables: %d\n",
		res.Stats.Facts, res.Stats.Items, res.Stats.Versions, res.Stats.Variables)
	if d := res.Document; d != nil && (len(d.Inputs) > 0 || len(d.Outputs) > 0 || len(d.Includes) > 0) {
		fmt.Fprintf(w, "  inputs: %d  outputs: %d  includes: %d\n", len(d.Inputs), len(d.Outputs), len(d.Includes))
	}
	if res.Cached {
		fmt.Fprintln(w, "  (from cache)")
	}

	for _, d := range res.Diagnostics {
		fmt.Fprintf(w, "  ⚠ [%s] %s: %s\n", d.Pass, d.Subject, d.Reason)
	}
	for _, d := range res.Dangling {
		fmt.Fprintf(w, "  ✗ dangling %s at %s\n", d.Ref, d.Location)
	}
}
