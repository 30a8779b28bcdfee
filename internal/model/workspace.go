package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Workspace is the block-editor document a conversion starts from
type Workspace struct {
	Blocks    BlockSet   `json:"blocks"`
	Variables []Variable `json:"variables"`
}

// BlockSet holds the top-level block stacks of a workspace
type BlockSet struct {
	Blocks []*Block `json:"blocks"`
}

// Block is one node in the block graph
type Block struct {
	Type   string           `json:"type"`
	ID     string           `json:"id,omitempty"`
	Fields map[string]Field `json:"fields,omitempty"`
	Inputs map[string]Input `json:"inputs,omitempty"`
	Next   *Input           `json:"next,omitempty"`
}

// Input is a named child slot (or the successor link) of a block
type Input struct {
	Block  *Block `json:"block,omitempty"`
	Shadow *Block `json:"shadow,omitempty"`
}

// Slot returns the block connected to the named input, falling back to its shadow
func (b *Block) Slot(name string) *Block {
	if b == nil {
		return nil
	}
	in, ok := b.Inputs[name]
	if !ok {
		return nil
	}
	if in.Block != nil {
		return in.Block
	}
	return in.Shadow
}

// Successor returns the next block in the statement chain
func (b *Block) Successor() *Block {
	if b == nil || b.Next == nil {
		return nil
	}
	return b.Next.Block
}

// Field is a block field. Editors serialize fields either as a bare scalar
// ("NUM": 12) or as an object carrying a variable id ("VAR": {"id": "..."}).
type Field struct {
	ID    string
	Value any // string, json.Number, bool or nil
}

// String returns the field value rendered as text
func (f Field) String() string {
	switch v := f.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// UnmarshalJSON accepts both the scalar and the object form
func (f *Field) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var obj struct {
			ID    string          `json:"id"`
			Name  string          `json:"name"`
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("decode field object: %w", err)
		}
		f.ID = obj.ID
		if len(obj.Value) > 0 {
			v, err := decodeScalar(obj.Value)
			if err != nil {
				return err
			}
			f.Value = v
		} else if obj.Name != "" {
			f.Value = obj.Name
		}
		return nil
	}

	v, err := decodeScalar(data)
	if err != nil {
		return err
	}
	f.Value = v
	return nil
}

// MarshalJSON writes the object form when an id is present, the scalar otherwise
func (f Field) MarshalJSON() ([]byte, error) {
	if f.ID != "" {
		return json.Marshal(struct {
			ID string `json:"id"`
		}{f.ID})
	}
	return json.Marshal(f.Value)
}

func decodeScalar(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode field value: %w", err)
	}
	switch v.(type) {
	case nil, string, json.Number, bool:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported field value %s", string(data))
	}
}

// Variable is a declaration from the workspace variables table. Type carries
// the metadata kind ("input:list", "include:law.output", "count", ...).
type Variable struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Type       string   `json:"type,omitempty"`
	ItemType   string   `json:"itemType,omitempty"`
	Properties []string `json:"properties,omitempty"`
	Collection string   `json:"collection,omitempty"`
	Filter     *Filter  `json:"filter,omitempty"`
}

// Filter is the raw filter metadata of an aggregation declaration
type Filter struct {
	Property string `json:"property,omitempty"`
	Operator string `json:"operator,omitempty"`
	Value    string `json:"value,omitempty"`
}

// ParseWorkspace decodes a workspace document, keeping numeric literals exact
func ParseWorkspace(data []byte) (*Workspace, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var ws Workspace
	if err := dec.Decode(&ws); err != nil {
		return nil, fmt.Errorf("parse workspace: %w", err)
	}
	return &ws, nil
}
