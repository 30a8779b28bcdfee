// Package metadata interprets the role metadata carried by workspace
// variable declarations.
//
// The metadata kind lives in the declaration's type string:
//
//	input:list                 input parameter that is a list
//	input:object               input parameter that is an object
//	include:<law>[.<output>]   output borrowed from another rule document
//	count|sum|avg|min|max      aggregation over a collection
//
// Parsers are tolerant: missing sub-fields yield partial results, never errors.
package metadata

import (
	"strings"

	"github.com/ppiankov/nrmlc/internal/model"
)

const (
	inputPrefix   = "input:"
	includePrefix = "include:"

	// DefaultItemType is used when an input declaration has no itemType
	DefaultItemType = "object"

	// DefaultFilterOperator is used when a filter has no operator
	DefaultFilterOperator = "=="
)

// AggregationFunctions lists the recognised aggregation kinds
var AggregationFunctions = []string{"count", "sum", "avg", "min", "max"}

// IsInput reports whether the declaration is an input parameter
func IsInput(v model.Variable) bool {
	return strings.HasPrefix(v.Type, inputPrefix)
}

// IsInclude reports whether the declaration references another document
func IsInclude(v model.Variable) bool {
	return strings.HasPrefix(v.Type, includePrefix)
}

// IsAggregation reports whether the declaration is an aggregation
func IsAggregation(v model.Variable) bool {
	for _, fn := range AggregationFunctions {
		if v.Type == fn {
			return true
		}
	}
	return false
}

// IsOutput reports whether the declaration is exposed as a document output.
// Aggregations are outputs.
func IsOutput(v model.Variable) bool {
	return IsAggregation(v)
}

// ParseInput builds the inputs-section entry for an input declaration.
// Property paths are synthetic: #/facts/<itemType>/items/<property>.
func ParseInput(v model.Variable) model.InputSpec {
	itemType := v.ItemType
	if itemType == "" {
		itemType = DefaultItemType
	}

	spec := model.InputSpec{
		Type: model.NewReference("#/facts/" + itemType),
	}

	if len(v.Properties) > 0 {
		spec.Properties = make(map[string]string, len(v.Properties))
		for _, prop := range v.Properties {
			spec.Properties[prop] = "#/facts/" + itemType + "/items/" + prop
		}
	}

	return spec
}

// ParseInclude splits "include:<law>[.<output>]" on the first dot. The output
// defaults to the declaration's own name.
func ParseInclude(v model.Variable) model.IncludeSpec {
	rest := strings.TrimPrefix(v.Type, includePrefix)

	law, output, found := strings.Cut(rest, ".")
	if !found {
		output = v.Name
	}

	return model.IncludeSpec{
		Law:    law,
		Output: output,
	}
}

// AggregationSpec is the parsed form of an aggregation declaration
type AggregationSpec struct {
	Function   string
	Collection string
	Property   string // only for sum/avg with a filter property
	Filter     *FilterSpec
}

// FilterSpec restricts the aggregated elements
type FilterSpec struct {
	Property string
	Operator string
	Value    string // name of the variable holding the comparison value
}

// ParseAggregation extracts function, collection and filter
func ParseAggregation(v model.Variable) AggregationSpec {
	spec := AggregationSpec{
		Function:   v.Type,
		Collection: v.Collection,
	}

	if v.Filter == nil {
		return spec
	}

	if v.Filter.Property != "" && (v.Type == "sum" || v.Type == "avg") {
		spec.Property = v.Filter.Property
	}

	op := v.Filter.Operator
	if op == "" {
		op = DefaultFilterOperator
	}

	spec.Filter = &FilterSpec{
		Property: v.Filter.Property,
		Operator: op,
		Value:    v.Filter.Value,
	}

	return spec
}
