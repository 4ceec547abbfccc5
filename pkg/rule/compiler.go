package rule

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// Compile turns a declarative definition into an executable rule.
// Validation is kind-specific; any failure is a *DefinitionError naming
// the offending field and is fatal to this definition only.
func Compile(def Definition) (Executable, error) {
	if def.Name == "" {
		return nil, definitionErr(def, "name", "name is required")
	}

	base, err := compileBase(def)
	if err != nil {
		return nil, err
	}

	switch def.Kind {
	case KindFirstEvent:
		return buildFirstEvent(def, base)
	case KindStreakN:
		return buildStreakN(def, base)
	case KindConditional:
		return buildConditional(def, base)
	case KindTimeBoundedStreak:
		return buildTimeBoundedStreak(def, base)
	case KindPeriodicAccumulation:
		return buildPeriodic(def, base, true)
	case KindPeriodicOccurrence:
		return buildPeriodic(def, base, false)
	case KindPeriodicAccumulationStreak:
		return buildPeriodicStreak(def, base, true)
	case KindPeriodicOccurrenceStreak:
		return buildPeriodicStreak(def, base, false)
	}
	return nil, definitionErr(def, "kind", "unknown rule kind %q", def.Kind)
}

// CompileAll compiles a game's full rule set. A bad definition is skipped
// and reported; it never aborts compiling the rest.
func CompileAll(defs []Definition) ([]Executable, []error) {
	var rules []Executable
	var errs []error
	for _, def := range defs {
		r, err := Compile(def)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to compile rule %q: %w", def.Name, err))
			continue
		}
		logrus.Debugf("compiled rule %q (kind=%s id=%s)", def.Name, def.Kind, r.ID())
		rules = append(rules, r)
	}
	return rules, errs
}

func compileBase(def Definition) (baseRule, error) {
	crit, err := compileCriteria(def.Criteria)
	if err != nil {
		return baseRule{}, definitionErr(def, "criteria", "%v", err)
	}
	return baseRule{
		id:        RuleID(def),
		name:      def.Name,
		kind:      def.Kind,
		eventType: def.Event,
		criteria:  crit,
	}, nil
}

func buildFirstEvent(def Definition, base baseRule) (Executable, error) {
	if def.Event == "" && len(def.Criteria) == 0 {
		return nil, definitionErr(def, "event", "FIRST_EVENT requires an event type or criteria")
	}
	return &firstEventRule{baseRule: base, attribute: def.Attribute}, nil
}

func buildStreakN(def Definition, base baseRule) (Executable, error) {
	levels, err := validatedStreaks(def)
	if err != nil {
		return nil, err
	}
	return &streakRule{baseRule: base, levels: levels}, nil
}

func buildConditional(def Definition, base baseRule) (Executable, error) {
	if len(def.Conditions) == 0 {
		return nil, definitionErr(def, "conditions", "CONDITIONAL requires at least one condition")
	}
	conds := make([]compiledCondition, 0, len(def.Conditions))
	for i, c := range def.Conditions {
		if len(c.Criteria) == 0 {
			return nil, definitionErr(def, "conditions", "condition %d has no criteria", i)
		}
		crit, err := compileCriteria(c.Criteria)
		if err != nil {
			return nil, definitionErr(def, "conditions", "condition %d: %v", i, err)
		}
		conds = append(conds, compiledCondition{
			priority:  c.Priority,
			criteria:  crit,
			attribute: c.Attribute,
		})
	}
	sort.SliceStable(conds, func(i, j int) bool { return conds[i].priority < conds[j].priority })

	if def.MaxAwardTimes < 0 {
		return nil, definitionErr(def, "maxAwardTimes", "must not be negative")
	}
	return &conditionalRule{
		baseRule:      base,
		conditions:    conds,
		maxAwardTimes: def.MaxAwardTimes, // zero means unbounded
	}, nil
}

func buildTimeBoundedStreak(def Definition, base baseRule) (Executable, error) {
	levels, err := validatedStreaks(def)
	if err != nil {
		return nil, err
	}
	timeUnit, err := requireTimeUnit(def)
	if err != nil {
		return nil, err
	}
	return &timeBoundedStreakRule{
		baseRule:    base,
		levels:      levels,
		timeUnitMs:  timeUnit,
		consecutive: def.IsConsecutive(true),
	}, nil
}

func buildPeriodic(def Definition, base baseRule, accumulating bool) (Executable, error) {
	timeUnit, err := requireTimeUnit(def)
	if err != nil {
		return nil, err
	}
	if len(def.Thresholds) == 0 {
		return nil, definitionErr(def, "thresholds", "%s requires at least one threshold", def.Kind)
	}
	thresholds := append([]ThresholdLevel(nil), def.Thresholds...)
	sort.Slice(thresholds, func(i, j int) bool { return thresholds[i].Value < thresholds[j].Value })
	for _, t := range thresholds {
		if t.Value <= 0 {
			return nil, definitionErr(def, "thresholds", "threshold values must be positive, got %v", t.Value)
		}
	}

	r := &periodicRule{
		baseRule:   base,
		timeUnitMs: timeUnit,
		thresholds: thresholds,
	}
	if accumulating {
		r.extractor, err = compileValueExtractor(def.ValueExpression)
		if err != nil {
			return nil, definitionErr(def, "valueExpression", "%v", err)
		}
	}
	return r, nil
}

func buildPeriodicStreak(def Definition, base baseRule, accumulating bool) (Executable, error) {
	timeUnit, err := requireTimeUnit(def)
	if err != nil {
		return nil, err
	}
	if def.Threshold <= 0 {
		return nil, definitionErr(def, "threshold", "%s requires a positive threshold", def.Kind)
	}
	levels, err := validatedStreaks(def)
	if err != nil {
		return nil, err
	}

	r := &periodicStreakRule{
		baseRule:    base,
		timeUnitMs:  timeUnit,
		threshold:   def.Threshold,
		levels:      levels,
		consecutive: def.IsConsecutive(true),
	}
	if accumulating {
		r.extractor, err = compileValueExtractor(def.ValueExpression)
		if err != nil {
			return nil, definitionErr(def, "valueExpression", "%v", err)
		}
	}
	return r, nil
}

func validatedStreaks(def Definition) (streakLevels, error) {
	if len(def.Streaks) == 0 {
		return nil, definitionErr(def, "streaks", "%s requires a non-empty streak-to-attribute map", def.Kind)
	}
	for _, s := range def.Streaks {
		if s.Streak <= 0 {
			return nil, definitionErr(def, "streaks", "streak counts must be positive, got %d", s.Streak)
		}
	}
	return toStreakLevels(def.Streaks), nil
}

func requireTimeUnit(def Definition) (int64, error) {
	ms, err := ParseTimeUnit(def.TimeUnit)
	if err != nil {
		return 0, definitionErr(def, "timeUnit", "%v", err)
	}
	if ms <= 0 {
		return 0, definitionErr(def, "timeUnit", "must resolve to a positive duration")
	}
	return ms, nil
}
