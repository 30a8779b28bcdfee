// Package validate checks referential integrity of emitted rule documents:
// every $ref inside the facts, outputs and includes sections must name a
// fact or an item that exists in the same document.
package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/nrmlc/internal/model"
)

const factsPrefix = "#/facts/"

// checked top-level sections, in report order
var sections = []string{"facts", "outputs", "includes"}

// Dangling is a reference whose target is not in the document
type Dangling struct {
	Location string `json:"location"` // JSON pointer of the $ref holder
	Ref      string `json:"ref"`
}

// Result summarises one validation run
type Result struct {
	Refs     int        `json:"refs"`
	Dangling []Dangling `json:"dangling,omitempty"`
}

// OK reports whether every reference resolved
func (r *Result) OK() bool {
	return len(r.Dangling) == 0
}

// Validator resolves references against a document's own facts
type Validator struct {
	placeholders []string
}

// NewValidator creates a validator. References equal to, or nested under,
// a placeholder path are counted but never reported as dangling.
func NewValidator(placeholders ...string) *Validator {
	return &Validator{placeholders: placeholders}
}

// ValidateDocument checks an in-memory document
func (v *Validator) ValidateDocument(doc *model.Document) (*Result, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return v.ValidateJSON(data)
}

// ValidateJSON checks an encoded document
func (v *Validator) ValidateJSON(data []byte) (*Result, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}

	targets := collectTargets(doc["facts"])
	result := &Result{}

	for _, section := range sections {
		walk(doc[section], "/"+section, func(location, ref string) {
			result.Refs++
			if v.isPlaceholder(ref) || targets[ref] {
				return
			}
			result.Dangling = append(result.Dangling, Dangling{Location: location, Ref: ref})
		})
	}

	return result, nil
}

func (v *Validator) isPlaceholder(ref string) bool {
	for _, p := range v.placeholders {
		if ref == p || strings.HasPrefix(ref, p+"/") {
			return true
		}
	}
	return false
}

// collectTargets lists every resolvable path: one per fact and one per item
func collectTargets(facts any) map[string]bool {
	targets := make(map[string]bool)

	factMap, ok := facts.(map[string]any)
	if !ok {
		return targets
	}
	for factID, raw := range factMap {
		targets[factsPrefix+factID] = true

		fact, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		items, ok := fact["items"].(map[string]any)
		if !ok {
			continue
		}
		for itemID := range items {
			targets[factsPrefix+factID+"/items/"+itemID] = true
		}
	}
	return targets
}

// walk visits every {"$ref": "..."} object under node in a stable order
func walk(node any, location string, visit func(location, ref string)) {
	switch n := node.(type) {
	case map[string]any:
		if ref, ok := n["$ref"].(string); ok {
			visit(location, ref)
		}
		keys := make([]string, 0, len(n))
		for k := range n {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walk(n[k], location+"/"+escapePointer(k), visit)
		}
	case []any:
		for i, child := range n {
			walk(child, fmt.Sprintf("%s/%d", location, i), visit)
		}
	}
}

func escapePointer(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	return strings.ReplaceAll(s, "/", "~1")
}
