package validate

import (
	"testing"

	"github.com/ppiankov/nrmlc/internal/model"
)

const sampleDoc = `{
  "$schema": "https://example.com/nrml-facts-schema.json",
  "version": "1.0",
  "language": "nl",
  "inputs": {"kinderen": {"type": [{"$ref": "#/facts/kind"}]}},
  "outputs": {"aantal": {"source": [{"$ref": "#/facts/F3/items/I3"}]}},
  "includes": [{"law": "wet", "output": "x", "target": [{"$ref": "#/facts/F1/items/I1"}]}],
  "facts": {
    "F1": {"name": {"nl": "references"}, "items": {"I1": {"name": {"nl": "x"}, "versions": []}}},
    "F2": {"name": {"nl": "Constants"}, "items": {
      "I2": {"name": {"nl": "a"}, "versions": [{"validFrom": "2025-01-01", "type": "numeric"}]},
      "I2v": {"name": {"nl": "a"}, "versions": [{"validFrom": "2025-01-01", "target": [{"$ref": "#/facts/F2/items/I2"}], "value": {"value": 1}}]}
    }},
    "F3": {"name": {"nl": "calculated"}, "items": {"I3": {"name": {"nl": "aantal"}, "versions": [{
      "validFrom": "2025-01-01",
      "target": [{"$ref": "#/facts/F3/items/I3"}],
      "expression": {"type": "aggregation", "function": "count", "expression": [],
        "condition": {"type": "comparison", "operator": "equal", "arguments": [
          [{"$ref": "#/facts/child"}, {"$ref": "#/facts/child/items/leeftijd"}],
          [{"$ref": "#/facts/F2/items/I2v"}]
        ]}}
    }]}}}
  }
}`

func TestValidateJSON_AllResolved(t *testing.T) {
	result, err := NewValidator("#/facts/child").ValidateJSON([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("ValidateJSON() error = %v", err)
	}
	if !result.OK() {
		t.Errorf("Expected no dangling refs, got %+v", result.Dangling)
	}
	// output, include target, value target, self target, 2 placeholders, filter value
	if result.Refs != 7 {
		t.Errorf("Refs = %d, want 7", result.Refs)
	}
}

func TestValidateJSON_InputsNotChecked(t *testing.T) {
	result, err := NewValidator("#/facts/child").ValidateJSON([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("ValidateJSON() error = %v", err)
	}
	for _, d := range result.Dangling {
		if d.Ref == "#/facts/kind" {
			t.Errorf("input type refs must not be reported: %+v", d)
		}
	}
}

func TestValidateJSON_PlaceholderReportedWithoutExemption(t *testing.T) {
	result, err := NewValidator().ValidateJSON([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("ValidateJSON() error = %v", err)
	}
	if len(result.Dangling) != 2 {
		t.Fatalf("Expected 2 dangling placeholder refs, got %+v", result.Dangling)
	}
	want := "/facts/F3/items/I3/versions/0/expression/condition/arguments/0/0"
	if result.Dangling[0].Location != want {
		t.Errorf("Location = %q, want %q", result.Dangling[0].Location, want)
	}
	if result.Dangling[0].Ref != "#/facts/child" {
		t.Errorf("Ref = %q", result.Dangling[0].Ref)
	}
}

func TestValidateJSON_Dangling(t *testing.T) {
	doc := `{
	  "outputs": {"o": {"source": [{"$ref": "#/facts/F9/items/I9"}]}},
	  "facts": {"F1": {"items": {"I1": {"versions": [
	    {"target": [{"$ref": "#/facts/F1/items/missing"}]},
	    {"target": [{"$ref": "#/facts/F1"}]},
	    {"target": [{"$ref": "#/other/F1"}]}
	  ]}}}}
	}`

	result, err := NewValidator().ValidateJSON([]byte(doc))
	if err != nil {
		t.Fatalf("ValidateJSON() error = %v", err)
	}

	got := make(map[string]bool)
	for _, d := range result.Dangling {
		got[d.Ref] = true
	}
	for _, ref := range []string{"#/facts/F9/items/I9", "#/facts/F1/items/missing", "#/other/F1"} {
		if !got[ref] {
			t.Errorf("Expected %s to be dangling", ref)
		}
	}
	if got["#/facts/F1"] {
		t.Error("Fact-level ref should resolve")
	}
	if result.Refs != 4 {
		t.Errorf("Refs = %d, want 4", result.Refs)
	}
}

func TestValidateJSON_Malformed(t *testing.T) {
	if _, err := NewValidator().ValidateJSON([]byte(`{"facts":`)); err == nil {
		t.Error("Expected decode error")
	}
}

func TestValidateDocument(t *testing.T) {
	doc := &model.Document{
		Schema:   model.DefaultSchemaURL,
		Version:  model.DocumentVersion,
		Language: model.DefaultLanguage,
		Outputs:  map[string]model.OutputSpec{"x": {Source: model.NewReference("#/facts/f/items/i")}},
		Facts: model.Facts{{
			ID: "f",
			Fact: model.Fact{
				Name: model.LocalizedText{"nl": "Calculation"},
				Items: model.Items{{
					ID: "i",
					Item: model.Item{
						Name: model.LocalizedText{"nl": "x"},
						Versions: []model.Version{model.CalculatedValue{
							ValidFrom:  "2025-01-01",
							Target:     model.NewReference("#/facts/f/items/i"),
							Expression: model.NewReference("#/facts/f/items/gone"),
						}},
					},
				}},
			},
		}},
	}

	result, err := NewValidator().ValidateDocument(doc)
	if err != nil {
		t.Fatalf("ValidateDocument() error = %v", err)
	}
	if len(result.Dangling) != 1 || result.Dangling[0].Ref != "#/facts/f/items/gone" {
		t.Errorf("Expected one dangling ref to gone, got %+v", result.Dangling)
	}
}

func TestEscapePointer(t *testing.T) {
	if got := escapePointer("a/b~c"); got != "a~1b~0c" {
		t.Errorf("escapePointer() = %q", got)
	}
}
