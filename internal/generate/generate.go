// Package generate builds the version and expression records of a rule
// document. Generators hold no registry state; paths are passed in.
package generate

import (
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/nrmlc/internal/model"
)

// ErrMissingValues is returned for an enumeration type without values
var ErrMissingValues = errors.New("enumeration requires values")

const dateLayout = "2006-01-02"

// Generator creates versions stamped with a fixed validFrom date
type Generator struct {
	validFrom string
}

// New creates a generator for the given validFrom date. The zero time means today.
func New(validFrom time.Time) *Generator {
	if validFrom.IsZero() {
		validFrom = time.Now()
	}
	return &Generator{validFrom: validFrom.Format(dateLayout)}
}

// ValidFrom returns the date stamped on every version
func (g *Generator) ValidFrom() string {
	return g.validFrom
}

// TypeSpec describes a type definition to generate
type TypeSpec struct {
	Type      model.DataType
	Precision int      // numeric only, omitted when 0
	Unit      string   // numeric only
	Values    []string // enumeration only, required
}

// TypeDefinition creates a type definition version
func (g *Generator) TypeDefinition(spec TypeSpec) (model.TypeDefinition, error) {
	def := model.TypeDefinition{
		ValidFrom: g.validFrom,
		Type:      spec.Type,
	}

	switch spec.Type {
	case model.DataTypeNumeric:
		if spec.Precision > 0 {
			def.Precision = spec.Precision
		}
		def.Unit = spec.Unit
	case model.DataTypeText, model.DataTypeBoolean:
	case model.DataTypeEnumeration:
		if len(spec.Values) == 0 {
			return model.TypeDefinition{}, ErrMissingValues
		}
		def.Values = append([]string(nil), spec.Values...)
	default:
		return model.TypeDefinition{}, fmt.Errorf("unsupported data type %q", spec.Type)
	}

	return def, nil
}

// Numeric is shorthand for a numeric type definition
func (g *Generator) Numeric(precision int) model.TypeDefinition {
	def, _ := g.TypeDefinition(TypeSpec{Type: model.DataTypeNumeric, Precision: precision})
	return def
}

// Text is shorthand for a text type definition
func (g *Generator) Text() model.TypeDefinition {
	def, _ := g.TypeDefinition(TypeSpec{Type: model.DataTypeText})
	return def
}

// ValueInitialization assigns value (with optional unit) to the item at targetPath
func (g *Generator) ValueInitialization(targetPath string, value any, unit string) model.ValueInitialization {
	return model.ValueInitialization{
		ValidFrom: g.validFrom,
		Target:    model.NewReference(targetPath),
		Value:     model.Literal{Value: value, Unit: unit},
	}
}

// CalculatedValue computes the item at targetPath from expr
func (g *Generator) CalculatedValue(targetPath string, expr model.Expression) model.CalculatedValue {
	return model.CalculatedValue{
		ValidFrom:  g.validFrom,
		Target:     model.NewReference(targetPath),
		Expression: expr,
	}
}

// ConditionalValue makes the item at targetPath hold the outcome of cond
func (g *Generator) ConditionalValue(targetPath string, cond model.Expression) model.ConditionalValue {
	return model.ConditionalValue{
		ValidFrom: g.validFrom,
		Target:    model.NewReference(targetPath),
		Condition: cond,
	}
}

// RelationDefinition relates the items at the given paths
func (g *Generator) RelationDefinition(paths ...string) model.RelationDefinition {
	args := make([]model.Reference, 0, len(paths))
	for _, p := range paths {
		args = append(args, model.NewReference(p))
	}
	return model.RelationDefinition{
		ValidFrom: g.validFrom,
		Arguments: args,
	}
}

// Arithmetic creates {type: arithmetic, operator, arguments}
func Arithmetic(operator string, operands []model.Expression) model.ArithmeticExpression {
	return model.ArithmeticExpression{Operator: operator, Arguments: operands}
}

// Aggregation creates {type: aggregation, function, expression, condition?}.
// A nil condition is omitted.
func Aggregation(function string, source []model.Expression, condition model.Expression) model.AggregationExpression {
	return model.AggregationExpression{Function: function, Expression: source, Condition: condition}
}

// Comparison creates {type: comparison, operator, arguments: [left, right]}
func Comparison(operator string, left, right model.Expression) model.ComparisonCondition {
	return model.ComparisonCondition{Operator: operator, Arguments: [2]model.Expression{left, right}}
}

// Logical creates {type: logical, operator, conditions}
func Logical(operator string, conditions []model.Expression) model.LogicalCondition {
	return model.LogicalCondition{Operator: operator, Conditions: conditions}
}

// Reference creates [{$ref: path}]
func Reference(path string) model.Reference {
	return model.NewReference(path)
}

// Literal creates {value}
func Literal(value any) model.Literal {
	return model.Literal{Value: value}
}
