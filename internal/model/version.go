package model

// Version is one temporally scoped declaration on an item. The set of
// implementations is closed: each variant fixes which fields are present.
type Version interface {
	// Since returns the validFrom date (YYYY-MM-DD)
	Since() string
	version()
}

// DataType is the declared type of an item
type DataType string

const (
	DataTypeNumeric     DataType = "numeric"
	DataTypeText        DataType = "text"
	DataTypeBoolean     DataType = "boolean"
	DataTypeEnumeration DataType = "enumeration"
)

// TypeDefinition declares the type of an item
type TypeDefinition struct {
	ValidFrom string   `json:"validFrom"`
	Type      DataType `json:"type"`
	Precision int      `json:"precision,omitempty"`
	Unit      string   `json:"unit,omitempty"`
	Values    []string `json:"values,omitempty"`
}

// ValueInitialization assigns a literal value to the target item
type ValueInitialization struct {
	ValidFrom string    `json:"validFrom"`
	Target    Reference `json:"target"`
	Value     Literal   `json:"value"`
}

// CalculatedValue computes the target item from an expression. Aggregation
// results are calculated values whose expression is an AggregationExpression.
type CalculatedValue struct {
	ValidFrom  string     `json:"validFrom"`
	Target     Reference  `json:"target"`
	Expression Expression `json:"expression"`
}

// ConditionalValue makes the target item hold the outcome of a condition
type ConditionalValue struct {
	ValidFrom string     `json:"validFrom"`
	Target    Reference  `json:"target"`
	Condition Expression `json:"condition"`
}

// RelationDefinition relates the referenced items to each other
type RelationDefinition struct {
	ValidFrom string      `json:"validFrom"`
	Arguments []Reference `json:"arguments"`
}

func (v TypeDefinition) Since() string      { return v.ValidFrom }
func (v ValueInitialization) Since() string { return v.ValidFrom }
func (v CalculatedValue) Since() string     { return v.ValidFrom }
func (v ConditionalValue) Since() string    { return v.ValidFrom }
func (v RelationDefinition) Since() string  { return v.ValidFrom }

func (TypeDefinition) version()      {}
func (ValueInitialization) version() {}
func (CalculatedValue) version()     {}
func (ConditionalValue) version()    {}
func (RelationDefinition) version()  {}

// Expression is a node of a computed value. Implementations: Reference,
// Literal, ArithmeticExpression, AggregationExpression, ComparisonCondition
// and LogicalCondition.
type Expression interface {
	expression()
}

// Ref is a single JSON pointer into the document
type Ref struct {
	Path string `json:"$ref"`
}

// Reference is a path pointer encoded as a list. It holds one path, except
// on the left side of an aggregation filter, which pairs the collection
// element placeholder with its property item.
type Reference []Ref

// NewReference wraps path as a reference
func NewReference(path string) Reference {
	return Reference{{Path: path}}
}

// Path returns the first path of the reference, or ""
func (r Reference) Path() string {
	if len(r) == 0 {
		return ""
	}
	return r[0].Path
}

// Literal is an inline value
type Literal struct {
	Value any    `json:"value"`
	Unit  string `json:"unit,omitempty"`
}

// ArithmeticExpression applies an operator to ordered operands
type ArithmeticExpression struct {
	Operator  string
	Arguments []Expression
}

// AggregationExpression reduces a collection, optionally filtered
type AggregationExpression struct {
	Function   string
	Expression []Expression
	Condition  Expression
}

// ComparisonCondition compares two operands
type ComparisonCondition struct {
	Operator  string
	Arguments [2]Expression
}

// LogicalCondition combines conditions with and/or/not
type LogicalCondition struct {
	Operator   string
	Conditions []Expression
}

func (Reference) expression()             {}
func (Literal) expression()               {}
func (ArithmeticExpression) expression()  {}
func (AggregationExpression) expression() {}
func (ComparisonCondition) expression()   {}
func (LogicalCondition) expression()      {}

// MarshalJSON writes {type: arithmetic, operator, arguments}
func (e ArithmeticExpression) MarshalJSON() ([]byte, error) {
	args := e.Arguments
	if args == nil {
		args = []Expression{}
	}
	return marshalRaw(struct {
		Type      string       `json:"type"`
		Operator  string       `json:"operator"`
		Arguments []Expression `json:"arguments"`
	}{"arithmetic", e.Operator, args})
}

// MarshalJSON writes {type: aggregation, function, expression, condition?}
func (e AggregationExpression) MarshalJSON() ([]byte, error) {
	src := e.Expression
	if src == nil {
		src = []Expression{}
	}
	return marshalRaw(struct {
		Type       string       `json:"type"`
		Function   string       `json:"function"`
		Expression []Expression `json:"expression"`
		Condition  Expression   `json:"condition,omitempty"`
	}{"aggregation", e.Function, src, e.Condition})
}

// MarshalJSON writes {type: comparison, operator, arguments: [left, right]}
func (e ComparisonCondition) MarshalJSON() ([]byte, error) {
	return marshalRaw(struct {
		Type      string        `json:"type"`
		Operator  string        `json:"operator"`
		Arguments [2]Expression `json:"arguments"`
	}{"comparison", e.Operator, e.Arguments})
}

// MarshalJSON writes {type: logical, operator, conditions}
func (e LogicalCondition) MarshalJSON() ([]byte, error) {
	conds := e.Conditions
	if conds == nil {
		conds = []Expression{}
	}
	return marshalRaw(struct {
		Type       string       `json:"type"`
		Operator   string       `json:"operator"`
		Conditions []Expression `json:"conditions"`
	}{"logical", e.Operator, conds})
}
