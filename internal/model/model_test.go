package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestField_UnmarshalForms(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantID    string
		wantValue any
	}{
		{"bare number", `12`, "", json.Number("12")},
		{"bare decimal keeps form", `0.210`, "", json.Number("0.210")},
		{"bare string", `"MULTIPLY"`, "", "MULTIPLY"},
		{"bare bool", `true`, "", true},
		{"variable object", `{"id":"var_a"}`, "var_a", nil},
		{"object with value", `{"value":3}`, "", json.Number("3")},
		{"object with name", `{"id":"v","name":"afstand"}`, "v", "afstand"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f Field
			if err := json.Unmarshal([]byte(tt.input), &f); err != nil {
				t.Fatalf("Unmarshal error = %v", err)
			}
			if f.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", f.ID, tt.wantID)
			}
			if f.Value != tt.wantValue {
				t.Errorf("Value = %#v, want %#v", f.Value, tt.wantValue)
			}
		})
	}
}

func TestField_RejectsComposite(t *testing.T) {
	var f Field
	if err := json.Unmarshal([]byte(`[1,2]`), &f); err == nil {
		t.Error("Expected error for array field value")
	}
}

func TestBlock_SlotPrefersBlockOverShadow(t *testing.T) {
	ws, err := ParseWorkspace([]byte(`{
		"blocks": {"blocks": [{
			"type": "math_arithmetic",
			"inputs": {
				"A": {"shadow": {"type": "math_number", "fields": {"NUM": 1}}},
				"B": {
					"shadow": {"type": "math_number", "fields": {"NUM": 1}},
					"block": {"type": "variables_get", "fields": {"VAR": {"id": "v"}}}
				}
			},
			"next": {"block": {"type": "text"}}
		}]},
		"variables": []
	}`))
	if err != nil {
		t.Fatalf("ParseWorkspace error = %v", err)
	}

	b := ws.Blocks.Blocks[0]
	if got := b.Slot("A"); got == nil || got.Type != "math_number" {
		t.Errorf("Slot(A) = %+v, want shadow number", got)
	}
	if got := b.Slot("B"); got == nil || got.Type != "variables_get" {
		t.Errorf("Slot(B) = %+v, want connected block", got)
	}
	if b.Slot("C") != nil {
		t.Error("Expected nil for missing slot")
	}
	if got := b.Successor(); got == nil || got.Type != "text" {
		t.Errorf("Successor() = %+v", got)
	}

	var nilBlock *Block
	if nilBlock.Slot("A") != nil || nilBlock.Successor() != nil {
		t.Error("Expected nil-safe accessors")
	}
}

func TestFacts_MarshalInCreationOrder(t *testing.T) {
	facts := Facts{
		{ID: "z", Fact: Fact{Name: LocalizedText{"nl": "z"}, Items: Items{}}},
		{ID: "a", Fact: Fact{Name: LocalizedText{"nl": "a"}, Items: Items{
			{ID: "i2", Item: Item{Name: LocalizedText{"nl": "x<=y"}, Versions: []Version{}}},
			{ID: "i1", Item: Item{Name: LocalizedText{"nl": "b"}, Versions: []Version{}}},
		}}},
	}

	data, err := json.Marshal(struct {
		Facts Facts `json:"facts"`
	}{facts})
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}

	got := string(data)
	if idx := strings.Index(got, `"z"`); idx < 0 || idx > strings.Index(got, `"a"`) {
		t.Errorf("Expected fact z before fact a: %s", got)
	}
	if strings.Index(got, `"i2"`) > strings.Index(got, `"i1"`) {
		t.Errorf("Expected item i2 before item i1: %s", got)
	}
}

func TestFacts_EmptyIsObject(t *testing.T) {
	data, err := json.Marshal(Facts{})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "{}" {
		t.Errorf("Marshal(Facts{}) = %s, want {}", data)
	}
}

func TestExpressions_Marshal(t *testing.T) {
	ref := NewReference("#/facts/F/items/I")

	tests := []struct {
		name string
		expr Expression
		want string
	}{
		{
			"arithmetic without operands",
			ArithmeticExpression{Operator: "add"},
			`{"type":"arithmetic","operator":"add","arguments":[]}`,
		},
		{
			"aggregation without source",
			AggregationExpression{Function: "count"},
			`{"type":"aggregation","function":"count","expression":[]}`,
		},
		{
			"comparison",
			ComparisonCondition{Operator: "lessThanOrEqual", Arguments: [2]Expression{ref, Literal{Value: json.Number("6")}}},
			`{"type":"comparison","operator":"lessThanOrEqual","arguments":[[{"$ref":"#/facts/F/items/I"}],{"value":6}]}`,
		},
		{
			"logical",
			LogicalCondition{Operator: "or", Conditions: []Expression{Literal{Value: true}}},
			`{"type":"logical","operator":"or","conditions":[{"value":true}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.expr)
			if err != nil {
				t.Fatalf("Marshal error = %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("Marshal = %s\nwant      %s", data, tt.want)
			}
		})
	}
}

func TestExpressions_NoHTMLEscaping(t *testing.T) {
	expr := ArithmeticExpression{Operator: "add", Arguments: []Expression{Literal{Value: "<b>"}}}
	data, err := expr.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"<b>"`) {
		t.Errorf("Expected unescaped literal, got %s", data)
	}
}

func TestReference_Path(t *testing.T) {
	if got := NewReference("#/facts/F").Path(); got != "#/facts/F" {
		t.Errorf("Path() = %q", got)
	}
	pair := Reference{{Path: "#/facts/child"}, {Path: "#/facts/child/items/age"}}
	if got := pair.Path(); got != "#/facts/child" {
		t.Errorf("pair Path() = %q", got)
	}
	data, err := json.Marshal(pair)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `[{"$ref":"#/facts/child"},{"$ref":"#/facts/child/items/age"}]` {
		t.Errorf("Marshal(pair) = %s", data)
	}
	if got := (Reference{}).Path(); got != "" {
		t.Errorf("empty Path() = %q", got)
	}
}
