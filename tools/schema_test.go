package tools

import "testing"

func TestObjectSchema(t *testing.T) {
	s := ObjectSchema(map[string]interface{}{
		"asset":  StringProperty("Asset symbol"),
		"action": StringEnumProperty("Side of the market", "lend", "borrow"),
	}, "asset")

	if s["type"] != "object" {
		t.Errorf("type = %v", s["type"])
	}
	props := s["properties"].(map[string]interface{})
	if len(props) != 2 {
		t.Errorf("len(properties) = %d", len(props))
	}
	required := s["required"].([]string)
	if len(required) != 1 || required[0] != "asset" {
		t.Errorf("required = %v", required)
	}

	if _, ok := ObjectSchema(nil)["required"]; ok {
		t.Error("required present with no required fields")
	}
}

func TestPropertyHelpers(t *testing.T) {
	tests := []struct {
		name     string
		prop     map[string]interface{}
		wantType string
	}{
		{"string", StringProperty("a string"), "string"},
		{"number", NumberProperty("a number"), "number"},
		{"integer", IntegerProperty("an integer"), "integer"},
	}
	for _, tt := range tests {
		if tt.prop["type"] != tt.wantType {
			t.Errorf("%s type = %v, want %q", tt.name, tt.prop["type"], tt.wantType)
		}
		if tt.prop["description"] == "" {
			t.Errorf("%s description empty", tt.name)
		}
	}

	enum := StringEnumProperty("side", "lend", "borrow")
	values := enum["enum"].([]string)
	if len(values) != 2 || values[0] != "lend" {
		t.Errorf("enum = %v", values)
	}
}

func TestWithThought(t *testing.T) {
	base := ObjectSchema(map[string]interface{}{"asset": StringProperty("Asset symbol")}, "asset")

	got := WithThought(base, true)
	props := got["properties"].(map[string]interface{})
	if _, ok := props["thought"]; !ok {
		t.Fatal("thought property missing")
	}
	required := got["required"].([]string)
	if len(required) != 2 || required[1] != "thought" {
		t.Errorf("required = %v", required)
	}

	// The input schema keeps its original shape.
	baseProps := base["properties"].(map[string]interface{})
	if _, ok := baseProps["thought"]; ok {
		t.Error("WithThought mutated the input schema")
	}
	if len(base["required"].([]string)) != 1 {
		t.Errorf("input required = %v", base["required"])
	}
}

func TestWithThoughtOptional(t *testing.T) {
	got := WithThought(ObjectSchema(map[string]interface{}{}), false)
	if _, ok := got["required"]; ok {
		t.Errorf("required = %v, want absent", got["required"])
	}
	props := got["properties"].(map[string]interface{})
	if _, ok := props["thought"]; !ok {
		t.Error("thought property missing")
	}
}

func TestBuildSchemaWithThought(t *testing.T) {
	s := BuildSchemaWithThought(map[string]interface{}{
		"amount": NumberProperty("Amount to supply"),
	}, true, "amount")

	props := s["properties"].(map[string]interface{})
	if _, ok := props["amount"]; !ok {
		t.Error("amount property missing")
	}
	if _, ok := props["thought"]; !ok {
		t.Error("thought property missing")
	}
	required := s["required"].([]string)
	if len(required) != 2 || required[0] != "amount" || required[1] != "thought" {
		t.Errorf("required = %v", required)
	}
}
