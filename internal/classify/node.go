package classify

import (
	"encoding/json"
	"math"

	"github.com/ppiankov/nrmlc/internal/model"
)

// Block type names emitted by the editor
const (
	BlockVariablesSet   = "variables_set"
	BlockVariablesGet   = "variables_get"
	BlockMathNumber     = "math_number"
	BlockText           = "text"
	BlockLogicBoolean   = "logic_boolean"
	BlockMathArithmetic = "math_arithmetic"
	BlockLogicCompare   = "logic_compare"
	BlockLogicOperation = "logic_operation"
	BlockLogicNegate    = "logic_negate"
	BlockLogicTernary   = "logic_ternary"
	BlockControlsIf     = "controls_if"
)

// Node is a parsed block. The set of kinds is closed; anything the parser
// does not recognise becomes Unknown.
type Node interface {
	node()
}

// Assignment sets a variable to the value of an expression
type Assignment struct {
	VarID string
	Value Node // nil when the value slot is empty
}

// NumberLiteral keeps the literal in its serialized decimal form
type NumberLiteral struct {
	Value json.Number
}

// TextLiteral is a string constant
type TextLiteral struct {
	Text string
}

// BooleanLiteral is true or false
type BooleanLiteral struct {
	Value bool
}

// VariableRef reads a variable
type VariableRef struct {
	VarID string
}

// Arithmetic is a binary arithmetic operation (OP field: ADD, MINUS, ...)
type Arithmetic struct {
	Op   string
	A, B Node
}

// Compare is a binary comparison (OP field: EQ, NEQ, LT, LTE, GT, GTE)
type Compare struct {
	Op   string
	A, B Node
}

// LogicOperation combines two booleans (OP field: AND, OR)
type LogicOperation struct {
	Op   string
	A, B Node
}

// Negate inverts a boolean
type Negate struct {
	Operand Node
}

// Conditional is an if/ternary construct
type Conditional struct {
	Condition Node
	Then      Node
	Else      Node
}

// Unknown is any block outside the supported subset
type Unknown struct {
	Type string
}

func (Assignment) node()     {}
func (NumberLiteral) node()  {}
func (TextLiteral) node()    {}
func (BooleanLiteral) node() {}
func (VariableRef) node()    {}
func (Arithmetic) node()     {}
func (Compare) node()        {}
func (LogicOperation) node() {}
func (Negate) node()         {}
func (Conditional) node()    {}
func (Unknown) node()        {}

// Parse converts a raw block and its value slots into a Node tree. A nil
// block parses to nil.
func Parse(b *model.Block) Node {
	if b == nil {
		return nil
	}

	switch b.Type {
	case BlockVariablesSet:
		return Assignment{VarID: b.Fields["VAR"].ID, Value: Parse(b.Slot("VALUE"))}
	case BlockVariablesGet:
		return VariableRef{VarID: b.Fields["VAR"].ID}
	case BlockMathNumber:
		if n, ok := numberField(b.Fields["NUM"]); ok {
			return NumberLiteral{Value: n}
		}
		return Unknown{Type: b.Type}
	case BlockText:
		return TextLiteral{Text: b.Fields["TEXT"].String()}
	case BlockLogicBoolean:
		return BooleanLiteral{Value: b.Fields["BOOL"].String() == "TRUE"}
	case BlockMathArithmetic:
		return Arithmetic{Op: fieldOr(b, "OP", "ADD"), A: Parse(b.Slot("A")), B: Parse(b.Slot("B"))}
	case BlockLogicCompare:
		return Compare{Op: fieldOr(b, "OP", "EQ"), A: Parse(b.Slot("A")), B: Parse(b.Slot("B"))}
	case BlockLogicOperation:
		return LogicOperation{Op: fieldOr(b, "OP", "AND"), A: Parse(b.Slot("A")), B: Parse(b.Slot("B"))}
	case BlockLogicNegate:
		return Negate{Operand: Parse(b.Slot("BOOL"))}
	case BlockLogicTernary:
		return Conditional{Condition: Parse(b.Slot("IF")), Then: Parse(b.Slot("THEN")), Else: Parse(b.Slot("ELSE"))}
	case BlockControlsIf:
		return Conditional{Condition: Parse(b.Slot("IF0")), Then: Parse(b.Slot("DO0")), Else: Parse(b.Slot("ELSE"))}
	default:
		return Unknown{Type: b.Type}
	}
}

func fieldOr(b *model.Block, name, fallback string) string {
	if s := b.Fields[name].String(); s != "" {
		return s
	}
	return fallback
}

// numberField accepts a JSON number or a numeric string
func numberField(f model.Field) (json.Number, bool) {
	switch v := f.Value.(type) {
	case json.Number:
		return v, true
	case string:
		n := json.Number(v)
		if x, err := n.Float64(); err == nil && !math.IsNaN(x) && !math.IsInf(x, 0) {
			return n, true
		}
	}
	return "", false
}
