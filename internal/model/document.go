package model

import (
	"bytes"
	"encoding/json"
)

// Document is the rule document produced by a conversion
type Document struct {
	Schema   string                `json:"$schema"`
	Version  string                `json:"version"`
	Language string                `json:"language"`
	Inputs   map[string]InputSpec  `json:"inputs,omitempty"`
	Outputs  map[string]OutputSpec `json:"outputs,omitempty"`
	Includes []IncludeSpec         `json:"includes,omitempty"`
	Facts    Facts                 `json:"facts"`
}

// DocumentVersion is the fixed document format version
const DocumentVersion = "1.0"

// DefaultSchemaURL is the schema reference written into every document
const DefaultSchemaURL = "https://example.com/nrml-facts-schema.json"

// DefaultLanguage is the language of display names and of the document
const DefaultLanguage = "nl"

// LocalizedText maps a language code to a display string
type LocalizedText map[string]string

// Fact is a named collection of items
type Fact struct {
	Name            LocalizedText `json:"name"`
	DefiniteArticle *bool         `json:"definite_article,omitempty"`
	Animated        *bool         `json:"animated,omitempty"`
	Relation        *bool         `json:"relation,omitempty"`
	Items           Items         `json:"items"`
}

// Item is a single declared value within a fact
type Item struct {
	Name     LocalizedText `json:"name"`
	Article  string        `json:"article,omitempty"`
	Plural   LocalizedText `json:"plural,omitempty"`
	Versions []Version     `json:"versions"`
}

// FactEntry pairs a fact with its identity token
type FactEntry struct {
	ID   string
	Fact Fact
}

// ItemEntry pairs an item with its identity token
type ItemEntry struct {
	ID   string
	Item Item
}

// Facts is an insertion-ordered fact table, encoded as a JSON object
type Facts []FactEntry

// Items is an insertion-ordered item table, encoded as a JSON object
type Items []ItemEntry

// Get returns the fact with the given id
func (fs Facts) Get(id string) (Fact, bool) {
	for _, e := range fs {
		if e.ID == id {
			return e.Fact, true
		}
	}
	return Fact{}, false
}

// ByName returns the first fact whose display name in lang equals name
func (fs Facts) ByName(lang, name string) (FactEntry, bool) {
	for _, e := range fs {
		if e.Fact.Name[lang] == name {
			return e, true
		}
	}
	return FactEntry{}, false
}

// Get returns the item with the given id
func (is Items) Get(id string) (Item, bool) {
	for _, e := range is {
		if e.ID == id {
			return e.Item, true
		}
	}
	return Item{}, false
}

// MarshalJSON writes the facts as an object keyed by id, in creation order
func (fs Facts) MarshalJSON() ([]byte, error) {
	return marshalOrdered(len(fs), func(i int) (string, any) {
		return fs[i].ID, fs[i].Fact
	})
}

// MarshalJSON writes the items as an object keyed by id, in creation order
func (is Items) MarshalJSON() ([]byte, error) {
	return marshalOrdered(len(is), func(i int) (string, any) {
		return is[i].ID, is[i].Item
	})
}

func marshalOrdered(n int, at func(int) (string, any)) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i := 0; i < n; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, val := at(i)
		k, err := marshalRaw(key)
		if err != nil {
			return nil, err
		}
		v, err := marshalRaw(val)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalRaw is json.Marshal without HTML escaping, so "<=" in filter
// operators and literals survives nested MarshalJSON calls
func marshalRaw(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// InputSpec describes an externally supplied input parameter
type InputSpec struct {
	Type       Reference         `json:"type"`
	Properties map[string]string `json:"properties,omitempty"`
}

// OutputSpec exposes a computed item as a document output
type OutputSpec struct {
	Source Reference `json:"source"`
}

// IncludeSpec borrows an output computed by another rule document
type IncludeSpec struct {
	Law    string    `json:"law"`
	Output string    `json:"output"`
	Target Reference `json:"target,omitempty"`
}
