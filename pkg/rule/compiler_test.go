package rule

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileValidDefinitions(t *testing.T) {
	defs := []Definition{
		{Name: "first-login", Kind: KindFirstEvent, Event: "login", Attribute: 10},
		{
			Name: "login-streaks", Kind: KindStreakN, Event: "login",
			Streaks: []StreakLevel{{Streak: 3, Attribute: 20}},
		},
		{
			Name: "big-spender", Kind: KindConditional, Event: "purchase",
			Conditions: []ConditionDef{
				{Priority: 1, Attribute: 40, Criteria: []Clause{{Field: "amount", Op: OpGreaterThanOrEqual, Value: 100}}},
			},
		},
		{
			Name: "daily-week", Kind: KindTimeBoundedStreak, Event: "login",
			TimeUnit: "24h",
			Streaks:  []StreakLevel{{Streak: 7, Attribute: 35}},
		},
		{
			Name: "weekly-distance", Kind: KindPeriodicAccumulation, Event: "workout",
			TimeUnit: "7d", ValueExpression: "distance",
			Thresholds: []ThresholdLevel{{Value: 50, Attribute: 15}},
		},
		{
			Name: "weekly-workouts", Kind: KindPeriodicOccurrence, Event: "workout",
			TimeUnit:   "7d",
			Thresholds: []ThresholdLevel{{Value: 3, Attribute: 12}},
		},
		{
			Name: "consistent-distance", Kind: KindPeriodicAccumulationStreak, Event: "workout",
			TimeUnit: "7d", Threshold: 50, ValueExpression: "distance",
			Streaks: []StreakLevel{{Streak: 4, Attribute: 45}},
		},
		{
			Name: "regular-player", Kind: KindPeriodicOccurrenceStreak, Event: "match_played",
			TimeUnit: "7d", Threshold: 5,
			Streaks: []StreakLevel{{Streak: 8, Attribute: 60}},
		},
	}

	for _, def := range defs {
		t.Run(def.Name, func(t *testing.T) {
			r, err := Compile(def)
			require.NoError(t, err)
			assert.Equal(t, def.Name, r.Name())
			assert.Equal(t, def.Kind, r.Kind())
			assert.Equal(t, RuleID(def), r.ID())
		})
	}
}

func TestCompileInvalidDefinitions(t *testing.T) {
	tests := []struct {
		name  string
		def   Definition
		field string
	}{
		{
			name:  "missing name",
			def:   Definition{Kind: KindFirstEvent, Event: "login"},
			field: "name",
		},
		{
			name:  "unknown kind",
			def:   Definition{Name: "x", Kind: "MYSTERY"},
			field: "kind",
		},
		{
			name:  "first event without filter",
			def:   Definition{Name: "x", Kind: KindFirstEvent},
			field: "event",
		},
		{
			name:  "streak without levels",
			def:   Definition{Name: "x", Kind: KindStreakN, Event: "login"},
			field: "streaks",
		},
		{
			name: "streak with non-positive count",
			def: Definition{
				Name: "x", Kind: KindStreakN, Event: "login",
				Streaks: []StreakLevel{{Streak: 0, Attribute: 1}},
			},
			field: "streaks",
		},
		{
			name:  "conditional without conditions",
			def:   Definition{Name: "x", Kind: KindConditional, Event: "purchase"},
			field: "conditions",
		},
		{
			name: "conditional condition without criteria",
			def: Definition{
				Name: "x", Kind: KindConditional, Event: "purchase",
				Conditions: []ConditionDef{{Priority: 1, Attribute: 1}},
			},
			field: "conditions",
		},
		{
			name: "conditional negative cap",
			def: Definition{
				Name: "x", Kind: KindConditional, Event: "purchase",
				MaxAwardTimes: -1,
				Conditions: []ConditionDef{
					{Priority: 1, Attribute: 1, Criteria: []Clause{{Field: "a", Op: OpEqual, Value: 1}}},
				},
			},
			field: "maxAwardTimes",
		},
		{
			name: "time bounded streak without time unit",
			def: Definition{
				Name: "x", Kind: KindTimeBoundedStreak, Event: "login",
				Streaks: []StreakLevel{{Streak: 7, Attribute: 1}},
			},
			field: "timeUnit",
		},
		{
			name: "periodic without thresholds",
			def: Definition{
				Name: "x", Kind: KindPeriodicOccurrence, Event: "workout",
				TimeUnit: "7d",
			},
			field: "thresholds",
		},
		{
			name: "periodic with non-positive threshold",
			def: Definition{
				Name: "x", Kind: KindPeriodicOccurrence, Event: "workout",
				TimeUnit:   "7d",
				Thresholds: []ThresholdLevel{{Value: 0, Attribute: 1}},
			},
			field: "thresholds",
		},
		{
			name: "accumulation without value expression",
			def: Definition{
				Name: "x", Kind: KindPeriodicAccumulation, Event: "workout",
				TimeUnit:   "7d",
				Thresholds: []ThresholdLevel{{Value: 50, Attribute: 1}},
			},
			field: "valueExpression",
		},
		{
			name: "periodic streak without threshold",
			def: Definition{
				Name: "x", Kind: KindPeriodicOccurrenceStreak, Event: "workout",
				TimeUnit: "7d",
				Streaks:  []StreakLevel{{Streak: 4, Attribute: 1}},
			},
			field: "threshold",
		},
		{
			name: "bad criteria operator",
			def: Definition{
				Name: "x", Kind: KindFirstEvent, Event: "login",
				Criteria: []Clause{{Field: "a", Op: "like", Value: 1}},
			},
			field: "criteria",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.def)
			require.Error(t, err)

			var defErr *DefinitionError
			require.True(t, errors.As(err, &defErr), "expected *DefinitionError, got %T", err)
			assert.Equal(t, tt.field, defErr.Field)
		})
	}
}

func TestCompileAllSkipsBadDefinitions(t *testing.T) {
	defs := []Definition{
		{Name: "good", Kind: KindFirstEvent, Event: "login", Attribute: 10},
		{Name: "bad", Kind: KindStreakN, Event: "login"}, // no streak levels
		{
			Name: "also-good", Kind: KindStreakN, Event: "login",
			Streaks: []StreakLevel{{Streak: 3, Attribute: 20}},
		},
	}

	rules, errs := CompileAll(defs)
	require.Len(t, rules, 2)
	require.Len(t, errs, 1)
	assert.Equal(t, "good", rules[0].Name())
	assert.Equal(t, "also-good", rules[1].Name())
	assert.Contains(t, errs[0].Error(), "bad")
}
