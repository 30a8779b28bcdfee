// Package classify maps workspace blocks and variable declarations to the
// kinds of rule-document structures they produce.
package classify

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/ppiankov/nrmlc/internal/metadata"
	"github.com/ppiankov/nrmlc/internal/model"
)

// Tag names a structure a block or declaration gives rise to
type Tag int

const (
	TagUnknown Tag = iota
	TagTypeDefinition
	TagValueInitialization
	TagCalculatedValue
	TagConditionalValue
	TagAggregation
	TagInputDeclaration
	TagOutputDeclaration
	TagIncludeReference
)

func (t Tag) String() string {
	switch t {
	case TagTypeDefinition:
		return "type_definition"
	case TagValueInitialization:
		return "value_initialization"
	case TagCalculatedValue:
		return "calculated_value"
	case TagConditionalValue:
		return "conditional_value"
	case TagAggregation:
		return "aggregation"
	case TagInputDeclaration:
		return "input_declaration"
	case TagOutputDeclaration:
		return "output_declaration"
	case TagIncludeReference:
		return "include_reference"
	default:
		return "unknown"
	}
}

// Has reports whether tags contains t
func Has(tags []Tag, t Tag) bool {
	for _, tag := range tags {
		if tag == t {
			return true
		}
	}
	return false
}

// Classify returns the tags for one block. It never fails: unsupported
// blocks classify as [TagUnknown].
func Classify(b *model.Block) []Tag {
	if b == nil {
		return []Tag{TagUnknown}
	}
	return ClassifyNode(Parse(b))
}

// ClassifyNode returns the tags for an already parsed block
func ClassifyNode(n Node) []Tag {
	switch n := n.(type) {
	case Assignment:
		return classifyValue(n.Value)
	case NumberLiteral, TextLiteral:
		return []Tag{TagTypeDefinition, TagValueInitialization}
	case Arithmetic:
		return []Tag{TagCalculatedValue}
	case VariableRef:
		return []Tag{}
	default:
		return []Tag{TagUnknown}
	}
}

// classifyValue inspects the value slot of an assignment
func classifyValue(v Node) []Tag {
	switch v.(type) {
	case NumberLiteral, TextLiteral:
		return []Tag{TagTypeDefinition, TagValueInitialization}
	case Arithmetic:
		return []Tag{TagCalculatedValue}
	case Compare, LogicOperation, Negate, Conditional:
		return []Tag{TagConditionalValue}
	default:
		return []Tag{TagUnknown}
	}
}

// ClassifyDeclaration maps a declaration's metadata kind to tags. Declarations
// without a recognised kind yield an empty list.
func ClassifyDeclaration(v model.Variable) []Tag {
	switch {
	case metadata.IsInput(v):
		return []Tag{TagInputDeclaration}
	case metadata.IsInclude(v):
		return []Tag{TagIncludeReference}
	case metadata.IsAggregation(v):
		tags := []Tag{TagAggregation}
		if metadata.IsOutput(v) {
			tags = append(tags, TagOutputDeclaration)
		}
		return tags
	default:
		return []Tag{}
	}
}

// LookupVariable finds a declaration by id
func LookupVariable(id string, vars []model.Variable) (model.Variable, bool) {
	if id == "" {
		return model.Variable{}, false
	}
	for _, v := range vars {
		if v.ID == id {
			return v, true
		}
	}
	return model.Variable{}, false
}

// VariableName resolves the display name of the variable an assignment block
// writes to
func VariableName(b *model.Block, vars []model.Variable) (string, bool) {
	if b == nil || b.Type != BlockVariablesSet {
		return "", false
	}
	v, ok := LookupVariable(b.Fields["VAR"].ID, vars)
	if !ok || v.Name == "" {
		return "", false
	}
	return v.Name, true
}

// NumericLiteral returns the payload of a number literal
func NumericLiteral(n Node) (json.Number, bool) {
	lit, ok := n.(NumberLiteral)
	if !ok {
		return "", false
	}
	return lit.Value, true
}

// TextLiteralValue returns the payload of a text literal
func TextLiteralValue(n Node) (string, bool) {
	lit, ok := n.(TextLiteral)
	if !ok {
		return "", false
	}
	return lit.Text, true
}

// DecimalPlaces counts the digits after the decimal point in the canonical
// base-10 form of n. Integral values have zero decimal places.
func DecimalPlaces(n json.Number) int {
	f, err := n.Float64()
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	if f == math.Trunc(f) {
		return 0
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	_, frac, found := strings.Cut(s, ".")
	if !found {
		return 0
	}
	return len(frac)
}

// NumberValue converts a literal to the value written into the document:
// integral literals become int64, others float64.
func NumberValue(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f)
		}
		return f
	}
	return n.String()
}
