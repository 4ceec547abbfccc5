package rule

import "fmt"

// DefinitionError reports a malformed rule definition. It is fatal to
// that definition only; sibling definitions still compile.
type DefinitionError struct {
	Name   string
	Field  string
	Reason string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("invalid definition %q field %q: %s", e.Name, e.Field, e.Reason)
}

func definitionErr(def Definition, field, format string, args ...interface{}) *DefinitionError {
	return &DefinitionError{
		Name:   def.Name,
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	}
}

// ExpressionError reports that value extraction failed for one event,
// usually a missing or non-numeric attribute. The event is unmatched for
// the reporting rule only; evaluation state is left untouched.
type ExpressionError struct {
	Expression string
	Reason     string
}

func (e *ExpressionError) Error() string {
	return fmt.Sprintf("expression %q: %s", e.Expression, e.Reason)
}
