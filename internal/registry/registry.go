// Package registry owns the identity of everything a conversion emits:
// facts, items, their versions, and the reference-key → path table used to
// resolve references. A Registry serves a single conversion and is not safe
// for concurrent use.
package registry

import (
	"errors"
	"fmt"
	"maps"

	"github.com/ppiankov/nrmlc/internal/model"
)

var (
	// ErrUnknownFact is returned when a fact id was never issued
	ErrUnknownFact = errors.New("unknown fact")

	// ErrUnknownItem is returned when an item id was never issued under a fact
	ErrUnknownItem = errors.New("unknown item")
)

type item struct {
	id       string
	refKey   string
	name     model.LocalizedText
	versions []model.Version
}

type fact struct {
	id    string
	name  model.LocalizedText
	items []*item
	index map[string]*item
}

// Location identifies an item
type Location struct {
	FactID string
	ItemID string
}

// Registry is the in-memory fact table of one conversion
type Registry struct {
	ids      IDSource
	language string

	facts []*fact
	index map[string]*fact

	locations map[string]Location // refKey -> location
	paths     map[string]string   // refKey -> canonical path
}

// Option configures a Registry
type Option func(*Registry)

// WithIDSource sets the identity token source (default: random UUIDs)
func WithIDSource(src IDSource) Option {
	return func(r *Registry) {
		if src != nil {
			r.ids = src
		}
	}
}

// WithLanguage sets the language of display names (default: nl)
func WithLanguage(lang string) Option {
	return func(r *Registry) {
		if lang != "" {
			r.language = lang
		}
	}
}

// New creates an empty registry
func New(opts ...Option) *Registry {
	r := &Registry{
		ids:       UUIDSource{},
		language:  model.DefaultLanguage,
		index:     make(map[string]*fact),
		locations: make(map[string]Location),
		paths:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Language returns the display-name language
func (r *Registry) Language() string {
	return r.language
}

// GetOrCreateFact returns the id of the fact named name, creating it when
// no fact has that display name yet
func (r *Registry) GetOrCreateFact(name string) string {
	for _, f := range r.facts {
		if f.name[r.language] == name {
			return f.id
		}
	}

	f := &fact{
		id:    r.ids.NewID(),
		name:  model.LocalizedText{r.language: name},
		index: make(map[string]*item),
	}
	r.facts = append(r.facts, f)
	r.index[f.id] = f
	return f.id
}

// CreateItem adds a new item under factID and registers refKey for it.
// A repeated refKey overwrites the earlier mapping.
func (r *Registry) CreateItem(factID, refKey, name string) (string, error) {
	f, ok := r.index[factID]
	if !ok {
		return "", fmt.Errorf("create item %q: %w: %s", refKey, ErrUnknownFact, factID)
	}

	it := &item{
		id:     r.ids.NewID(),
		refKey: refKey,
		name:   model.LocalizedText{r.language: name},
	}
	f.items = append(f.items, it)
	f.index[it.id] = it

	r.locations[refKey] = Location{FactID: factID, ItemID: it.id}
	r.paths[refKey] = Path(factID, it.id)

	return it.id, nil
}

// AddVersion appends a version to an item
func (r *Registry) AddVersion(factID, itemID string, v model.Version) error {
	f, ok := r.index[factID]
	if !ok {
		return fmt.Errorf("add version: %w: %s", ErrUnknownFact, factID)
	}
	it, ok := f.index[itemID]
	if !ok {
		return fmt.Errorf("add version: %w: %s in fact %s", ErrUnknownItem, itemID, factID)
	}
	it.versions = append(it.versions, v)
	return nil
}

// Path returns the reference path registered for refKey
func (r *Registry) Path(refKey string) (string, bool) {
	p, ok := r.paths[refKey]
	return p, ok
}

// Lookup returns the location registered for refKey
func (r *Registry) Lookup(refKey string) (Location, bool) {
	loc, ok := r.locations[refKey]
	return loc, ok
}

// Path formats the canonical reference path of an item
func Path(factID, itemID string) string {
	return "#/facts/" + factID + "/items/" + itemID
}

// Sections carries the optional top-level document sections
type Sections struct {
	SchemaURL string
	Inputs    map[string]model.InputSpec
	Outputs   map[string]model.OutputSpec
	Includes  []model.IncludeSpec
}

// ToDocument assembles the output document. Reference keys are internal and
// never emitted; facts and items keep their creation order; empty optional
// sections are omitted. The returned document shares nothing mutable with
// the registry.
func (r *Registry) ToDocument(s Sections) *model.Document {
	schema := s.SchemaURL
	if schema == "" {
		schema = model.DefaultSchemaURL
	}

	doc := &model.Document{
		Schema:   schema,
		Version:  model.DocumentVersion,
		Language: r.language,
		Facts:    make(model.Facts, 0, len(r.facts)),
	}

	if len(s.Inputs) > 0 {
		doc.Inputs = maps.Clone(s.Inputs)
	}
	if len(s.Outputs) > 0 {
		doc.Outputs = maps.Clone(s.Outputs)
	}
	if len(s.Includes) > 0 {
		doc.Includes = append([]model.IncludeSpec(nil), s.Includes...)
	}

	for _, f := range r.facts {
		entry := model.FactEntry{
			ID: f.id,
			Fact: model.Fact{
				Name:  maps.Clone(f.name),
				Items: make(model.Items, 0, len(f.items)),
			},
		}
		for _, it := range f.items {
			entry.Fact.Items = append(entry.Fact.Items, model.ItemEntry{
				ID: it.id,
				Item: model.Item{
					Name:     maps.Clone(it.name),
					Versions: append([]model.Version{}, it.versions...),
				},
			})
		}
		doc.Facts = append(doc.Facts, entry)
	}

	return doc
}

// Stats summarises the registry contents
type Stats struct {
	Facts     int `json:"facts"`
	Items     int `json:"items"`
	Versions  int `json:"versions"`
	Variables int `json:"variables"`
}

// Stats counts facts, items, versions and registered reference keys
func (r *Registry) Stats() Stats {
	st := Stats{Facts: len(r.facts), Variables: len(r.locations)}
	for _, f := range r.facts {
		st.Items += len(f.items)
		for _, it := range f.items {
			st.Versions += len(it.versions)
		}
	}
	return st
}
