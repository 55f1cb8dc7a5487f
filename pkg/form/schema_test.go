package form

import (
	"errors"
	"reflect"
	"regexp"
	"testing"
)

func TestValidateRequired(t *testing.T) {
	schema := Schema{"name": {Required: true}}

	tests := []struct {
		name    string
		input   map[string]any
		wantErr bool
	}{
		{"absent field", map[string]any{}, true},
		{"empty string", map[string]any{"name": ""}, true},
		{"nil value", map[string]any{"name": nil}, true},
		{"non-empty string", map[string]any{"name": "x"}, false},
		{"zero int", map[string]any{"name": 0}, false},
		{"false bool", map[string]any{"name": false}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Validate(tt.input, schema)
			_, got := out.Errors["name"]
			if got != tt.wantErr {
				t.Errorf("error present = %v, want %v (errors: %v)", got, tt.wantErr, out.Errors)
			}
			if out.Valid == tt.wantErr {
				t.Errorf("Valid = %v, want %v", out.Valid, !tt.wantErr)
			}
		})
	}
}

func TestValidateMinLength(t *testing.T) {
	schema := Schema{"name": {MinLength: 2}}

	if out := Validate(map[string]any{"name": "a"}, schema); out.Valid {
		t.Error("single character passed MinLength 2")
	}
	if out := Validate(map[string]any{"name": "ab"}, schema); !out.Valid {
		t.Errorf("two characters failed MinLength 2: %v", out.Errors)
	}
}

func TestValidateMaxLength(t *testing.T) {
	schema := Schema{"bio": {MaxLength: 3}}

	if out := Validate(map[string]any{"bio": "abcd"}, schema); out.Valid {
		t.Error("four characters passed MaxLength 3")
	}
	if out := Validate(map[string]any{"bio": "abc"}, schema); !out.Valid {
		t.Errorf("three characters failed MaxLength 3: %v", out.Errors)
	}
}

func TestValidateShortCircuitOrder(t *testing.T) {
	// Required fires before MinLength, MinLength before Pattern.
	schema := Schema{
		"code": {
			Required:  true,
			MinLength: 4,
			Pattern:   regexp.MustCompile(`^[0-9]+$`),
		},
	}

	out := Validate(map[string]any{}, schema)
	if out.Errors["code"] != "This field is required" {
		t.Errorf("absent field error = %q, want required message", out.Errors["code"])
	}

	out = Validate(map[string]any{"code": "ab"}, schema)
	if out.Errors["code"] != "Must be at least 4 characters" {
		t.Errorf("short field error = %q, want min length message", out.Errors["code"])
	}

	out = Validate(map[string]any{"code": "abcd"}, schema)
	if out.Errors["code"] != "Invalid format" {
		t.Errorf("non-numeric field error = %q, want pattern message", out.Errors["code"])
	}
}

func TestValidateNonStringSkipsStringRules(t *testing.T) {
	customCalled := false
	schema := Schema{
		"age": {
			MinLength: 5,
			Pattern:   regexp.MustCompile(`^x+$`),
			Custom: func(value any) error {
				customCalled = true
				if n, ok := value.(int); ok && n < 18 {
					return errors.New("Must be an adult")
				}
				return nil
			},
		},
	}

	out := Validate(map[string]any{"age": 42}, schema)
	if !out.Valid {
		t.Errorf("numeric value tripped string rules: %v", out.Errors)
	}
	if !customCalled {
		t.Error("custom check skipped for numeric value")
	}

	out = Validate(map[string]any{"age": 12}, schema)
	if out.Errors["age"] != "Must be an adult" {
		t.Errorf("custom error = %q, want custom message", out.Errors["age"])
	}
}

func TestValidateCustomSeesPresentNil(t *testing.T) {
	var seen any = "sentinel"
	called := false
	schema := Schema{
		"tag": {
			Custom: func(value any) error {
				called = true
				seen = value
				if value == nil {
					return errors.New("Tag must be set")
				}
				return nil
			},
		},
	}

	// Present with an explicit nil: string rules don't apply, but the
	// custom check still runs.
	out := Validate(map[string]any{"tag": nil}, schema)
	if !called {
		t.Fatal("custom check skipped for present nil value")
	}
	if seen != nil {
		t.Errorf("custom received %v, want nil", seen)
	}
	if out.Errors["tag"] != "Tag must be set" {
		t.Errorf("error = %q, want custom message", out.Errors["tag"])
	}

	// Absent stays untouched.
	called = false
	out = Validate(map[string]any{}, schema)
	if called {
		t.Error("custom check ran for absent field")
	}
	if !out.Valid {
		t.Errorf("absent optional field failed: %v", out.Errors)
	}
}

func TestValidateUndeclaredFieldsIgnored(t *testing.T) {
	schema := Schema{"name": {Required: true}}
	out := Validate(map[string]any{"name": "ok", "extra": ""}, schema)

	if !out.Valid {
		t.Errorf("undeclared field was validated: %v", out.Errors)
	}
}

func TestValidateSignupScenario(t *testing.T) {
	schema := Schema{
		"name":  {Required: true, MinLength: 2},
		"email": {Required: true, Pattern: Email()},
	}

	out := Validate(map[string]any{"name": "A", "email": "bad"}, schema)
	if out.Valid {
		t.Fatal("invalid input reported valid")
	}
	if out.Errors["name"] != "Must be at least 2 characters" {
		t.Errorf("name error = %q", out.Errors["name"])
	}
	if out.Errors["email"] != "Invalid format" {
		t.Errorf("email error = %q", out.Errors["email"])
	}

	out = Validate(map[string]any{"name": "Ann", "email": "a@b.com"}, schema)
	if !out.Valid {
		t.Errorf("valid input rejected: %v", out.Errors)
	}
	if len(out.Errors) != 0 {
		t.Errorf("errors map not empty for valid input: %v", out.Errors)
	}
}

func TestValidateIsDeterministic(t *testing.T) {
	schema := Schema{
		"name":  {Required: true, MinLength: 2, MaxLength: 10},
		"email": {Required: true, Pattern: Email()},
		"age":   {Custom: func(any) error { return nil }},
	}
	input := map[string]any{"name": "x", "email": "nope", "age": 30}

	first := Validate(input, schema)
	for i := 0; i < 50; i++ {
		if got := Validate(input, schema); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %+v vs %+v", i, got, first)
		}
	}
}

func TestValidateDoesNotMutateInput(t *testing.T) {
	input := map[string]any{"name": "Ann"}
	Validate(input, Schema{"name": {Required: true}})

	if len(input) != 1 || input["name"] != "Ann" {
		t.Errorf("input mutated: %v", input)
	}
}
