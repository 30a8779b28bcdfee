package classify

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/ppiankov/nrmlc/internal/model"
)

func number(raw string) *model.Block {
	return &model.Block{Type: BlockMathNumber, Fields: map[string]model.Field{"NUM": {Value: json.Number(raw)}}}
}

func text(s string) *model.Block {
	return &model.Block{Type: BlockText, Fields: map[string]model.Field{"TEXT": {Value: s}}}
}

func get(id string) *model.Block {
	return &model.Block{Type: BlockVariablesGet, Fields: map[string]model.Field{"VAR": {ID: id}}}
}

func binary(typ, op string, a, b *model.Block) *model.Block {
	return &model.Block{
		Type:   typ,
		Fields: map[string]model.Field{"OP": {Value: op}},
		Inputs: map[string]model.Input{"A": {Block: a}, "B": {Block: b}},
	}
}

func set(id string, value *model.Block) *model.Block {
	b := &model.Block{Type: BlockVariablesSet, Fields: map[string]model.Field{"VAR": {ID: id}}}
	if value != nil {
		b.Inputs = map[string]model.Input{"VALUE": {Block: value}}
	}
	return b
}

func TestClassify_Assignments(t *testing.T) {
	tests := []struct {
		name  string
		block *model.Block
		want  []Tag
	}{
		{"numeric literal", set("v1", number("12")), []Tag{TagTypeDefinition, TagValueInitialization}},
		{"text literal", set("v1", text("hallo")), []Tag{TagTypeDefinition, TagValueInitialization}},
		{"arithmetic", set("v1", binary(BlockMathArithmetic, "MULTIPLY", get("a"), get("b"))), []Tag{TagCalculatedValue}},
		{"comparison", set("v1", binary(BlockLogicCompare, "LTE", get("a"), number("3"))), []Tag{TagConditionalValue}},
		{"boolean operation", set("v1", binary(BlockLogicOperation, "AND", get("a"), get("b"))), []Tag{TagConditionalValue}},
		{"ternary", set("v1", &model.Block{Type: BlockLogicTernary}), []Tag{TagConditionalValue}},
		{"empty value slot", set("v1", nil), []Tag{TagUnknown}},
		{"unsupported value", set("v1", &model.Block{Type: "lists_create_with"}), []Tag{TagUnknown}},
		{"variable copy", set("v1", get("a")), []Tag{TagUnknown}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.block)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassify_StandaloneBlocks(t *testing.T) {
	if got := Classify(number("1")); !reflect.DeepEqual(got, []Tag{TagTypeDefinition, TagValueInitialization}) {
		t.Errorf("math_number: got %v", got)
	}
	if got := Classify(binary(BlockMathArithmetic, "ADD", nil, nil)); !reflect.DeepEqual(got, []Tag{TagCalculatedValue}) {
		t.Errorf("math_arithmetic: got %v", got)
	}
	if got := Classify(get("x")); len(got) != 0 {
		t.Errorf("variables_get: expected no tags, got %v", got)
	}
	if got := Classify(&model.Block{Type: "procedures_defnoreturn"}); !reflect.DeepEqual(got, []Tag{TagUnknown}) {
		t.Errorf("unknown block: got %v", got)
	}
	if got := Classify(nil); !reflect.DeepEqual(got, []Tag{TagUnknown}) {
		t.Errorf("nil block: got %v", got)
	}
}

func TestClassify_NonNumericNumberIsUnknown(t *testing.T) {
	b := set("v1", &model.Block{Type: BlockMathNumber, Fields: map[string]model.Field{"NUM": {Value: "abc"}}})
	if got := Classify(b); !reflect.DeepEqual(got, []Tag{TagUnknown}) {
		t.Errorf("expected unknown for non-numeric NUM, got %v", got)
	}
}

func TestClassifyDeclaration(t *testing.T) {
	tests := []struct {
		kind string
		want []Tag
	}{
		{"input:list", []Tag{TagInputDeclaration}},
		{"include:wet_x.output_y", []Tag{TagIncludeReference}},
		{"count", []Tag{TagAggregation, TagOutputDeclaration}},
		{"avg", []Tag{TagAggregation, TagOutputDeclaration}},
		{"number", []Tag{}},
		{"", []Tag{}},
	}

	for _, tt := range tests {
		got := ClassifyDeclaration(model.Variable{Name: "x", Type: tt.kind})
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ClassifyDeclaration(%q) = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestVariableName(t *testing.T) {
	vars := []model.Variable{
		{ID: "id-1", Name: "afstand"},
		{ID: "id-2", Name: ""},
	}

	if name, ok := VariableName(set("id-1", number("12")), vars); !ok || name != "afstand" {
		t.Errorf("expected afstand, got %q (ok=%v)", name, ok)
	}
	if _, ok := VariableName(set("missing", number("12")), vars); ok {
		t.Error("expected unresolved id to fail")
	}
	if _, ok := VariableName(set("id-2", number("12")), vars); ok {
		t.Error("expected empty name to fail")
	}
	if _, ok := VariableName(get("id-1"), vars); ok {
		t.Error("expected non-assignment block to fail")
	}
}

func TestDecimalPlaces(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"12", 0},
		{"12.0", 0},
		{"0.21", 2},
		{"0.5", 1},
		{"-3.125", 3},
		{"1e-3", 3},
		{"100", 0},
		{"not-a-number", 0},
	}

	for _, tt := range tests {
		if got := DecimalPlaces(json.Number(tt.raw)); got != tt.want {
			t.Errorf("DecimalPlaces(%s) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestNumberValue(t *testing.T) {
	if v := NumberValue("12"); v != int64(12) {
		t.Errorf("expected int64 12, got %#v", v)
	}
	if v := NumberValue("12.0"); v != int64(12) {
		t.Errorf("expected int64 12 for 12.0, got %#v", v)
	}
	if v := NumberValue("0.21"); v != 0.21 {
		t.Errorf("expected 0.21, got %#v", v)
	}
}

func TestParse_Literals(t *testing.T) {
	if lit, ok := NumericLiteral(Parse(number("0.21"))); !ok || lit != "0.21" {
		t.Errorf("expected numeric literal 0.21, got %q (ok=%v)", lit, ok)
	}
	if s, ok := TextLiteralValue(Parse(text("km"))); !ok || s != "km" {
		t.Errorf("expected text literal km, got %q (ok=%v)", s, ok)
	}
	if _, ok := NumericLiteral(Parse(text("12"))); ok {
		t.Error("text block must not yield a numeric literal")
	}

	stringNum := &model.Block{Type: BlockMathNumber, Fields: map[string]model.Field{"NUM": {Value: "7"}}}
	if lit, ok := NumericLiteral(Parse(stringNum)); !ok || lit != "7" {
		t.Errorf("expected numeric string to parse, got %q", lit)
	}
}

func TestParse_ArithmeticDefaultsAndShadows(t *testing.T) {
	b := &model.Block{
		Type: BlockMathArithmetic,
		Inputs: map[string]model.Input{
			"A": {Shadow: number("1")},
			"B": {Block: number("2"), Shadow: number("9")},
		},
	}

	n, ok := Parse(b).(Arithmetic)
	if !ok {
		t.Fatalf("expected Arithmetic node, got %T", Parse(b))
	}
	if n.Op != "ADD" {
		t.Errorf("expected default op ADD, got %s", n.Op)
	}
	if lit, _ := NumericLiteral(n.A); lit != "1" {
		t.Errorf("expected shadow operand 1, got %q", lit)
	}
	if lit, _ := NumericLiteral(n.B); lit != "2" {
		t.Errorf("expected connected block to win over shadow, got %q", lit)
	}
}

func TestTagString(t *testing.T) {
	if TagCalculatedValue.String() != "calculated_value" {
		t.Errorf("unexpected %s", TagCalculatedValue)
	}
	if Tag(99).String() != "unknown" {
		t.Errorf("unexpected %s", Tag(99))
	}
}
