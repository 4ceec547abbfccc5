package rule

import (
	"fmt"
	"strings"

	"github.com/AccelByte/extend-gamification-engine/pkg/event"
)

// Comparison operators usable in criteria clauses.
const (
	OpEqual              = "equal"
	OpNotEqual           = "notEqual"
	OpGreaterThan        = "greaterThan"
	OpGreaterThanOrEqual = "greaterThanOrEqual"
	OpLessThan           = "lessThan"
	OpLessThanOrEqual    = "lessThanOrEqual"
	OpContains           = "contains"
	OpNotContains        = "notContains"
)

// Clause is a single field comparison. Field is either a reserved event
// field name (eventType, userId, source) or a dotted path into the
// attribute bag.
type Clause struct {
	Field string      `yaml:"field" json:"field"`
	Op    string      `yaml:"op" json:"op"`
	Value interface{} `yaml:"value" json:"value"`
}

// criteria is a compiled conjunction of clauses. An empty criteria
// matches everything.
type criteria []Clause

func compileCriteria(clauses []Clause) (criteria, error) {
	for i, c := range clauses {
		if c.Field == "" {
			return nil, fmt.Errorf("clause %d has an empty field", i)
		}
		switch c.Op {
		case OpEqual, OpNotEqual, OpGreaterThan, OpGreaterThanOrEqual,
			OpLessThan, OpLessThanOrEqual, OpContains, OpNotContains:
		default:
			return nil, fmt.Errorf("clause %d has unknown operator %q", i, c.Op)
		}
	}
	return criteria(clauses), nil
}

func (c criteria) match(ev event.Event) bool {
	for _, clause := range c {
		if !evalClause(clause, ev) {
			return false
		}
	}
	return true
}

// evalClause evaluates one comparison. A missing field satisfies only the
// negated operators: "field is not X" holds vacuously for an absent
// field.
func evalClause(clause Clause, ev event.Event) bool {
	actual, ok := resolveField(clause.Field, ev)
	if !ok {
		return clause.Op == OpNotEqual || clause.Op == OpNotContains
	}

	switch clause.Op {
	case OpEqual:
		return valuesEqual(actual, clause.Value)
	case OpNotEqual:
		return !valuesEqual(actual, clause.Value)
	case OpGreaterThan, OpGreaterThanOrEqual, OpLessThan, OpLessThanOrEqual:
		a, aok := event.ToFloat(actual)
		b, bok := event.ToFloat(clause.Value)
		if !aok || !bok {
			return false
		}
		switch clause.Op {
		case OpGreaterThan:
			return a > b
		case OpGreaterThanOrEqual:
			return a >= b
		case OpLessThan:
			return a < b
		default:
			return a <= b
		}
	case OpContains:
		return stringContains(actual, clause.Value)
	case OpNotContains:
		return !stringContains(actual, clause.Value)
	}
	return false
}

func valuesEqual(a, b interface{}) bool {
	// Numeric values compare as numbers so YAML ints match JSON floats.
	if af, aok := event.ToFloat(a); aok {
		if bf, bok := event.ToFloat(b); bok {
			return af == bf
		}
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func stringContains(haystack, needle interface{}) bool {
	h, hok := haystack.(string)
	n, nok := needle.(string)
	return hok && nok && strings.Contains(h, n)
}

// resolveField maps a clause field to its event value: reserved names
// first, then the attribute bag via dotted paths.
func resolveField(field string, ev event.Event) (interface{}, bool) {
	switch field {
	case "eventType":
		return ev.Type, true
	case "userId":
		return ev.UserID, true
	case "source":
		if ev.Source == "" {
			return nil, false
		}
		return ev.Source, true
	}
	return lookupPath(ev.Attributes, field)
}

// lookupPath follows a dotted path through nested attribute maps.
func lookupPath(attrs map[string]interface{}, path string) (interface{}, bool) {
	if attrs == nil {
		return nil, false
	}
	parts := strings.Split(path, ".")
	var current interface{} = attrs
	for _, part := range parts {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// valueExtractor pulls the numeric value an accumulation rule adds up.
type valueExtractor struct {
	expression string
}

func compileValueExtractor(expression string) (*valueExtractor, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, fmt.Errorf("accumulation requires a valueExpression")
	}
	return &valueExtractor{expression: expression}, nil
}

// extract resolves the expression against the event. Failures are
// *ExpressionError: the event is unmatched for this rule only.
func (x *valueExtractor) extract(ev event.Event) (float64, error) {
	raw, ok := resolveField(x.expression, ev)
	if !ok {
		return 0, &ExpressionError{Expression: x.expression, Reason: "attribute not present on event"}
	}
	f, ok := event.ToFloat(raw)
	if !ok {
		return 0, &ExpressionError{Expression: x.expression, Reason: fmt.Sprintf("value %v is not numeric", raw)}
	}
	return f, nil
}
