package form

import (
	"fmt"
	"regexp"
)

// Rule declares the validation constraints for a single field.
//
// Rules are checked in a fixed order: required, minimum length, maximum
// length, pattern, then the custom check. The first failing rule
// produces the field's error and stops further checks for that field.
//
// Length and pattern constraints apply to string values only; numeric
// and boolean values pass through them untouched but are still handed
// to Custom.
type Rule struct {
	// Required fails when the field is absent or an empty string.
	// Zero and false are present values and satisfy Required.
	Required bool

	// MinLength is the minimum rune count for string values.
	// Zero disables the check. Empty strings are left to Required.
	MinLength int

	// MaxLength is the maximum rune count for string values.
	// Zero disables the check.
	MaxLength int

	// Pattern must match string values when set. Empty strings are
	// left to Required.
	Pattern *regexp.Regexp

	// Custom is an arbitrary check run last on every present value,
	// nil included. A nil return passes; a non-nil error's message
	// becomes the field error.
	Custom func(value any) error
}

// Schema maps field names to their rules. Fields not declared in the
// schema are never validated, even when present in the input.
type Schema map[string]Rule

// Outcome is the result of validating an input map against a schema.
type Outcome struct {
	Valid  bool              `json:"isValid"`
	Errors map[string]string `json:"errors"`
}

// Default rule messages.
const (
	msgRequired = "This field is required"
	msgPattern  = "Invalid format"
)

// Validate checks input against schema and returns the outcome.
//
// Validate is pure: it never mutates its arguments, and identical
// input and schema always produce the same outcome. Failures are
// reported as data; nothing here panics on user input.
func Validate(input map[string]any, schema Schema) Outcome {
	errs := make(map[string]string)
	for field, rule := range schema {
		value, present := input[field]
		if msg := checkField(rule, value, present); msg != "" {
			errs[field] = msg
		}
	}
	return Outcome{Valid: len(errs) == 0, Errors: errs}
}

// checkField evaluates a single field's rules in order and returns the
// first failure message, or "" when the field passes.
func checkField(rule Rule, value any, present bool) string {
	s, isString := value.(string)

	if rule.Required {
		if !present || value == nil || (isString && s == "") {
			return msgRequired
		}
	}
	if !present {
		// Optional and absent: nothing further to check. A present nil
		// skips the string checks below but still reaches Custom.
		return ""
	}

	if isString {
		if rule.MinLength > 0 && s != "" && len([]rune(s)) < rule.MinLength {
			return fmt.Sprintf("Must be at least %d characters", rule.MinLength)
		}
		if rule.MaxLength > 0 && len([]rune(s)) > rule.MaxLength {
			return fmt.Sprintf("Must be at most %d characters", rule.MaxLength)
		}
		if rule.Pattern != nil && s != "" && !rule.Pattern.MatchString(s) {
			return msgPattern
		}
	}

	if rule.Custom != nil {
		if err := rule.Custom(value); err != nil {
			return err.Error()
		}
	}
	return ""
}

// emailPattern is a pragmatic address check: something@something.tld
// with no whitespace.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Email returns the shared email pattern for schema rules.
func Email() *regexp.Regexp {
	return emailPattern
}
