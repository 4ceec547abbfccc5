package rule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind discriminates the rule state machine a definition compiles to.
type Kind string

const (
	KindFirstEvent                 Kind = "FIRST_EVENT"
	KindStreakN                    Kind = "STREAK_N"
	KindConditional                Kind = "CONDITIONAL"
	KindTimeBoundedStreak          Kind = "TIME_BOUNDED_STREAK"
	KindPeriodicAccumulation       Kind = "PERIODIC_ACCUMULATION"
	KindPeriodicOccurrence         Kind = "PERIODIC_OCCURRENCE"
	KindPeriodicAccumulationStreak Kind = "PERIODIC_ACCUMULATION_STREAK"
	KindPeriodicOccurrenceStreak   Kind = "PERIODIC_OCCURRENCE_STREAK"
)

// Definition is the declarative form of a badge rule as authored in the
// definitions file. Which fields are required depends on the kind; the
// compiler validates per kind.
type Definition struct {
	Name  string `yaml:"name" json:"name"`
	Kind  Kind   `yaml:"kind" json:"kind"`
	Event string `yaml:"event,omitempty" json:"event,omitempty"`

	// Criteria is a conjunction of clauses every relevant event must pass.
	Criteria []Clause `yaml:"criteria,omitempty" json:"criteria,omitempty"`

	// Attribute is the award payload for single-award kinds (FIRST_EVENT).
	Attribute int `yaml:"attribute,omitempty" json:"attribute,omitempty"`

	// Streaks maps streak counts to award attributes for the streak kinds.
	Streaks []StreakLevel `yaml:"streaks,omitempty" json:"streaks,omitempty"`

	// Conditions is the prioritized clause list for CONDITIONAL.
	Conditions []ConditionDef `yaml:"conditions,omitempty" json:"conditions,omitempty"`

	// MaxAwardTimes caps CONDITIONAL awards per user; zero means unbounded.
	MaxAwardTimes int `yaml:"maxAwardTimes,omitempty" json:"maxAwardTimes,omitempty"`

	// Consecutive selects the strict interpretation for the time-bounded
	// and periodic streak kinds. Nil takes the kind's default (true).
	Consecutive *bool `yaml:"consecutive,omitempty" json:"consecutive,omitempty"`

	// TimeUnit is the window or period length: a number (milliseconds), a
	// Go duration string, or a day-suffixed string like "7d".
	TimeUnit interface{} `yaml:"timeUnit,omitempty" json:"timeUnit,omitempty"`

	// Threshold is the single per-period target for the periodic streak
	// kinds.
	Threshold float64 `yaml:"threshold,omitempty" json:"threshold,omitempty"`

	// Thresholds maps per-period targets to award attributes for the plain
	// periodic kinds.
	Thresholds []ThresholdLevel `yaml:"thresholds,omitempty" json:"thresholds,omitempty"`

	// ValueExpression selects the numeric event value to accumulate, as a
	// dotted path into the attribute bag.
	ValueExpression string `yaml:"valueExpression,omitempty" json:"valueExpression,omitempty"`
}

// StreakLevel pairs a streak count with its award attribute.
type StreakLevel struct {
	Streak    int `yaml:"streak" json:"streak"`
	Attribute int `yaml:"attribute" json:"attribute"`
}

// ThresholdLevel pairs an accumulation target with its award attribute.
type ThresholdLevel struct {
	Value     float64 `yaml:"value" json:"value"`
	Attribute int     `yaml:"attribute" json:"attribute"`
}

// ConditionDef is one prioritized branch of a CONDITIONAL rule.
type ConditionDef struct {
	Priority  int      `yaml:"priority" json:"priority"`
	Criteria  []Clause `yaml:"criteria" json:"criteria"`
	Attribute int      `yaml:"attribute" json:"attribute"`
}

// IsConsecutive resolves the tri-state consecutive flag against the
// kind's default.
func (d Definition) IsConsecutive(defaultValue bool) bool {
	if d.Consecutive == nil {
		return defaultValue
	}
	return *d.Consecutive
}

// ParseTimeUnit normalizes the mixed-type timeUnit field to milliseconds.
// Accepted forms: any number (milliseconds), a digit string
// (milliseconds), a day-suffixed string like "7d", or a Go duration
// string like "24h" or "90m".
func ParseTimeUnit(v interface{}) (int64, error) {
	switch t := v.(type) {
	case nil:
		return 0, fmt.Errorf("timeUnit is required")
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case uint64:
		return int64(t), nil
	case float64:
		return int64(t), nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, fmt.Errorf("timeUnit is required")
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return ms, nil
		}
		if strings.HasSuffix(s, "d") {
			days, err := strconv.ParseInt(strings.TrimSuffix(s, "d"), 10, 64)
			if err != nil {
				return 0, fmt.Errorf("invalid day count in timeUnit %q", s)
			}
			return days * 24 * time.Hour.Milliseconds(), nil
		}
		dur, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid timeUnit %q: %v", s, err)
		}
		return dur.Milliseconds(), nil
	}
	return 0, fmt.Errorf("unsupported timeUnit type %T", v)
}
