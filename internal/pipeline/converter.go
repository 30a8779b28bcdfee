package pipeline

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/nrmlc/internal/classify"
	"github.com/ppiankov/nrmlc/internal/generate"
	"github.com/ppiankov/nrmlc/internal/metadata"
	"github.com/ppiankov/nrmlc/internal/model"
	"github.com/ppiankov/nrmlc/internal/registry"
)

// Fact names used by the conversion passes
const (
	FactReferences  = "references"
	FactConstants   = "Constants"
	FactCalculation = "Calculation"
	FactCalculated  = "calculated"
)

// CollectionElementPath is the placeholder for one element of an aggregated
// collection. It names no fact of the document.
const CollectionElementPath = "#/facts/child"

const valueKeySuffix = "-value"

// ErrConverterUsed is returned when Convert is called twice on one Converter
var ErrConverterUsed = errors.New("converter already used; create a new one per document")

// Options configure a Converter
type Options struct {
	Language         string
	SchemaURL        string
	ValidFrom        time.Time // zero = today
	IDs              registry.IDSource
	AllStacks        bool // walk every top-level stack, not only the first
	StrictReferences bool // drop filters and calculations with unresolved operands
}

// Diagnostic records a block or declaration the converter skipped or degraded
type Diagnostic struct {
	Pass    string `json:"pass"`
	Subject string `json:"subject"`
	Reason  string `json:"reason"`
}

// Converter turns one workspace into one rule document. It is single-use
// and not safe for concurrent use.
type Converter struct {
	opts     Options
	logger   *zap.Logger
	registry *registry.Registry
	gen      *generate.Generator

	vars        []model.Variable
	bindings    map[string]string // variable name -> path of the item last written for it
	inputs      map[string]model.InputSpec
	outputs     map[string]model.OutputSpec
	includes    []model.IncludeSpec
	diagnostics []Diagnostic
	used        bool
}

// NewConverter creates a converter. A nil logger discards log output.
func NewConverter(opts Options, logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Language == "" {
		opts.Language = model.DefaultLanguage
	}
	if opts.SchemaURL == "" {
		opts.SchemaURL = model.DefaultSchemaURL
	}

	return &Converter{
		opts:     opts,
		logger:   logger,
		registry: registry.New(registry.WithIDSource(opts.IDs), registry.WithLanguage(opts.Language)),
		gen:      generate.New(opts.ValidFrom),
		bindings: make(map[string]string),
		inputs:   make(map[string]model.InputSpec),
		outputs:  make(map[string]model.OutputSpec),
	}
}

// Convert runs the four passes over ws and assembles the document. Skipped
// blocks and declarations are reported through Diagnostics; only registry
// structural errors are returned.
func (c *Converter) Convert(ws *model.Workspace) (*model.Document, error) {
	if c.used {
		return nil, ErrConverterUsed
	}
	c.used = true

	if ws == nil {
		ws = &model.Workspace{}
	}
	c.vars = ws.Variables
	seq := classify.Sequence(ws, c.opts.AllStacks)

	c.logger.Debug("converting workspace",
		zap.Int("blocks", len(seq)),
		zap.Int("variables", len(ws.Variables)))

	// 1. Declarations: inputs and includes
	if err := c.metadataPass(); err != nil {
		return nil, fmt.Errorf("metadata pass: %w", err)
	}

	// 2. Literal assignments
	if err := c.constantsPass(seq); err != nil {
		return nil, fmt.Errorf("constants pass: %w", err)
	}

	// 3. Arithmetic and conditional assignments
	if err := c.calculationPass(seq); err != nil {
		return nil, fmt.Errorf("calculation pass: %w", err)
	}

	// 4. Aggregation declarations
	if err := c.aggregationPass(); err != nil {
		return nil, fmt.Errorf("aggregation pass: %w", err)
	}

	doc := c.registry.ToDocument(registry.Sections{
		SchemaURL: c.opts.SchemaURL,
		Inputs:    c.inputs,
		Outputs:   c.outputs,
		Includes:  c.includes,
	})

	c.logger.Debug("conversion complete",
		zap.Int("facts", len(doc.Facts)),
		zap.Int("diagnostics", len(c.diagnostics)))

	return doc, nil
}

// Diagnostics returns everything skipped or degraded during Convert
func (c *Converter) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), c.diagnostics...)
}

// Stats returns registry counts after Convert
func (c *Converter) Stats() registry.Stats {
	return c.registry.Stats()
}

func (c *Converter) skip(pass, subject, reason string) {
	c.diagnostics = append(c.diagnostics, Diagnostic{Pass: pass, Subject: subject, Reason: reason})
	c.logger.Debug("skipped",
		zap.String("pass", pass),
		zap.String("subject", subject),
		zap.String("reason", reason))
}

// bind makes path the value of name for every later reference and returns
// the previous binding
func (c *Converter) bind(name, path string) (prev string, had bool) {
	prev, had = c.bindings[name]
	c.bindings[name] = path
	return prev, had
}

func (c *Converter) unbind(name, prev string, had bool) {
	if had {
		c.bindings[name] = prev
		return
	}
	delete(c.bindings, name)
}

// resolve returns the path of the item holding a variable's value: whichever
// of the constant's "-value" item, calculation item, include or aggregation
// item was written last
func (c *Converter) resolve(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	p, ok := c.bindings[name]
	return p, ok
}

func (c *Converter) metadataPass() error {
	const pass = "metadata"

	for _, v := range c.vars {
		tags := classify.ClassifyDeclaration(v)
		if len(tags) == 0 {
			continue
		}
		if v.Name == "" {
			c.skip(pass, v.ID, "declaration has no name")
			continue
		}

		switch {
		case classify.Has(tags, classify.TagInputDeclaration):
			c.inputs[v.Name] = metadata.ParseInput(v)

		case classify.Has(tags, classify.TagIncludeReference):
			spec := metadata.ParseInclude(v)
			factID := c.registry.GetOrCreateFact(FactReferences)

			itemID, err := c.registry.CreateItem(factID, v.Name, spec.Output)
			if err != nil {
				return err
			}
			if err := c.registry.AddVersion(factID, itemID, c.gen.Numeric(0)); err != nil {
				return err
			}

			path := registry.Path(factID, itemID)
			c.bind(v.Name, path)
			spec.Target = generate.Reference(path)
			c.includes = append(c.includes, spec)
		}
	}

	return nil
}

func (c *Converter) constantsPass(seq []*model.Block) error {
	const pass = "constants"
	var factID string

	for _, b := range seq {
		node, ok := classify.Parse(b).(classify.Assignment)
		if !ok {
			continue
		}
		tags := classify.ClassifyNode(node)
		if !classify.Has(tags, classify.TagTypeDefinition) || !classify.Has(tags, classify.TagValueInitialization) {
			continue
		}

		name, ok := classify.VariableName(b, c.vars)
		if !ok {
			c.skip(pass, b.ID, "unresolved variable")
			continue
		}

		var (
			typeDef model.TypeDefinition
			value   any
		)
		if lit, ok := classify.NumericLiteral(node.Value); ok {
			typeDef = c.gen.Numeric(classify.DecimalPlaces(lit))
			value = classify.NumberValue(lit)
		} else if s, ok := classify.TextLiteralValue(node.Value); ok {
			typeDef = c.gen.Text()
			value = s
		} else {
			c.skip(pass, name, "empty value slot")
			continue
		}

		if factID == "" {
			factID = c.registry.GetOrCreateFact(FactConstants)
		}

		typeItem, err := c.registry.CreateItem(factID, name, name)
		if err != nil {
			return err
		}
		if err := c.registry.AddVersion(factID, typeItem, typeDef); err != nil {
			return err
		}

		valueItem, err := c.registry.CreateItem(factID, name+valueKeySuffix, name)
		if err != nil {
			return err
		}
		valueInit := c.gen.ValueInitialization(registry.Path(factID, typeItem), value, "")
		if err := c.registry.AddVersion(factID, valueItem, valueInit); err != nil {
			return err
		}
		c.bind(name, registry.Path(factID, valueItem))
	}

	return nil
}

func (c *Converter) calculationPass(seq []*model.Block) error {
	const pass = "calculation"
	var factID string

	for _, b := range seq {
		node, ok := classify.Parse(b).(classify.Assignment)
		if !ok {
			continue
		}
		tags := classify.ClassifyNode(node)
		calculated := classify.Has(tags, classify.TagCalculatedValue)
		conditional := classify.Has(tags, classify.TagConditionalValue)
		if !calculated && !conditional {
			continue
		}

		name, ok := classify.VariableName(b, c.vars)
		if !ok {
			c.skip(pass, b.ID, "unresolved variable")
			continue
		}

		if factID == "" {
			factID = c.registry.GetOrCreateFact(FactCalculation)
		}

		// the item exists before its expression, so x = x + 1 refers to itself
		itemID, err := c.registry.CreateItem(factID, name, name)
		if err != nil {
			return err
		}
		self := registry.Path(factID, itemID)
		prev, had := c.bind(name, self)

		var expr model.Expression
		if calculated {
			expr = c.compileArithmetic(name, node.Value)
		} else {
			expr = c.compileCondition(name, node.Value)
		}
		if expr == nil {
			// the item stays without versions; references keep the earlier value
			c.unbind(name, prev, had)
			c.skip(pass, name, "expression could not be compiled")
			continue
		}

		var v model.Version
		if calculated {
			v = c.gen.CalculatedValue(self, expr)
		} else {
			v = c.gen.ConditionalValue(self, expr)
		}
		if err := c.registry.AddVersion(factID, itemID, v); err != nil {
			return err
		}
	}

	return nil
}

// compileArithmetic compiles an arithmetic block. Unresolvable operands are
// dropped, or reject the whole expression under StrictReferences; an
// expression with no operands left is rejected.
func (c *Converter) compileArithmetic(subject string, n classify.Node) model.Expression {
	arith, ok := n.(classify.Arithmetic)
	if !ok {
		return nil
	}

	var (
		args    []model.Expression
		dropped bool
	)
	for _, operand := range []classify.Node{arith.A, arith.B} {
		if operand == nil {
			continue
		}
		if e := c.compileOperand(subject, operand); e != nil {
			args = append(args, e)
		} else {
			dropped = true
			c.skip("calculation", subject, "operand dropped")
		}
	}
	if len(args) == 0 {
		return nil
	}
	if dropped && c.opts.StrictReferences {
		return nil
	}

	return generate.Arithmetic(generate.ArithmeticOperator(arith.Op), args)
}

// compileCondition compiles comparison and boolean blocks
func (c *Converter) compileCondition(subject string, n classify.Node) model.Expression {
	switch n := n.(type) {
	case classify.Compare:
		left := c.compileOperand(subject, n.A)
		right := c.compileOperand(subject, n.B)
		if left == nil || right == nil {
			return nil
		}
		op := generate.ComparisonOperator(generate.BlockComparison(n.Op))
		return generate.Comparison(op, left, right)

	case classify.LogicOperation:
		var conds []model.Expression
		for _, operand := range []classify.Node{n.A, n.B} {
			if operand == nil {
				continue
			}
			e := c.compileOperand(subject, operand)
			if e == nil {
				c.skip("calculation", subject, "operand dropped")
				if c.opts.StrictReferences {
					return nil
				}
				continue
			}
			conds = append(conds, e)
		}
		if len(conds) == 0 {
			return nil
		}
		return generate.Logical(generate.LogicalOperator(n.Op), conds)

	case classify.Negate:
		inner := c.compileOperand(subject, n.Operand)
		if inner == nil {
			return nil
		}
		return generate.Logical("not", []model.Expression{inner})

	default:
		// if/ternary constructs have no document form
		return nil
	}
}

func (c *Converter) compileOperand(subject string, n classify.Node) model.Expression {
	switch n := n.(type) {
	case classify.VariableRef:
		v, ok := classify.LookupVariable(n.VarID, c.vars)
		if !ok {
			return nil
		}
		path, ok := c.resolve(v.Name)
		if !ok {
			return nil
		}
		return generate.Reference(path)
	case classify.NumberLiteral:
		return generate.Literal(classify.NumberValue(n.Value))
	case classify.TextLiteral:
		return generate.Literal(n.Text)
	case classify.BooleanLiteral:
		return generate.Literal(n.Value)
	case classify.Arithmetic:
		return c.compileArithmetic(subject, n)
	case classify.Compare, classify.LogicOperation, classify.Negate:
		return c.compileCondition(subject, n)
	default:
		return nil
	}
}

func (c *Converter) aggregationPass() error {
	const pass = "aggregation"
	var factID string

	for _, v := range c.vars {
		tags := classify.ClassifyDeclaration(v)
		if !classify.Has(tags, classify.TagAggregation) {
			continue
		}
		if v.Name == "" {
			c.skip(pass, v.ID, "declaration has no name")
			continue
		}

		spec := metadata.ParseAggregation(v)

		if factID == "" {
			factID = c.registry.GetOrCreateFact(FactCalculated)
		}
		itemID, err := c.registry.CreateItem(factID, v.Name, v.Name)
		if err != nil {
			return err
		}
		self := registry.Path(factID, itemID)
		c.bind(v.Name, self)

		source := []model.Expression{}
		if path, ok := c.resolve(spec.Collection); ok {
			source = append(source, generate.Reference(path))
		}

		var condition model.Expression
		if spec.Filter != nil {
			condition = c.filterCondition(v.Name, spec.Filter)
		}

		expr := generate.Aggregation(spec.Function, source, condition)
		if err := c.registry.AddVersion(factID, itemID, c.gen.CalculatedValue(self, expr)); err != nil {
			return err
		}

		if classify.Has(tags, classify.TagOutputDeclaration) {
			c.outputs[v.Name] = model.OutputSpec{Source: generate.Reference(self)}
		}
	}

	return nil
}

// filterCondition builds the comparison of a collection element's property
// against the filter value variable. An unregistered value variable falls
// back to a literal holding its name (reported as a diagnostic), or drops the
// condition under StrictReferences.
func (c *Converter) filterCondition(subject string, f *metadata.FilterSpec) model.Expression {
	left := model.Reference{
		{Path: CollectionElementPath},
		{Path: CollectionElementPath + "/items/" + f.Property},
	}

	var right model.Expression
	if path, ok := c.resolve(f.Value); ok {
		right = generate.Reference(path)
	} else {
		c.logger.Warn("filter value variable is not registered",
			zap.String("declaration", subject),
			zap.String("variable", f.Value),
			zap.Bool("strict", c.opts.StrictReferences))

		if c.opts.StrictReferences {
			c.skip("aggregation", subject, fmt.Sprintf("filter dropped: %q is not registered", f.Value))
			return nil
		}
		c.skip("aggregation", subject, fmt.Sprintf("filter value %q emitted as literal", f.Value))
		right = generate.Literal(f.Value)
	}

	return generate.Comparison(generate.ComparisonOperator(f.Operator), left, right)
}
