package rule

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// RuleID derives the deterministic identity of a definition: a SHA-256
// over a canonical ordered rendering of the normalized fields, truncated
// to 16 bytes. Recompiling an unchanged definition yields the same id, so
// existing runtime state is reused; changing any parameter yields a new
// id and therefore a fresh state record.
//
// The rendering is hand-built on purpose: it must not depend on any
// serialization library's canonical form.
func RuleID(def Definition) string {
	var sb strings.Builder

	writeField(&sb, "kind", string(def.Kind))
	writeField(&sb, "name", def.Name)
	writeField(&sb, "event", def.Event)
	writeField(&sb, "attribute", fmt.Sprintf("%d", def.Attribute))
	writeField(&sb, "maxAwardTimes", fmt.Sprintf("%d", def.MaxAwardTimes))
	if def.Consecutive != nil {
		writeField(&sb, "consecutive", fmt.Sprintf("%t", *def.Consecutive))
	}
	if def.TimeUnit != nil {
		// Normalize to milliseconds so "24h" and 86400000 hash alike.
		if ms, err := ParseTimeUnit(def.TimeUnit); err == nil {
			writeField(&sb, "timeUnit", fmt.Sprintf("%d", ms))
		} else {
			writeField(&sb, "timeUnit", fmt.Sprintf("%v", def.TimeUnit))
		}
	}
	writeField(&sb, "threshold", trimFloat(def.Threshold))
	writeField(&sb, "valueExpression", def.ValueExpression)

	streaks := append([]StreakLevel(nil), def.Streaks...)
	sort.Slice(streaks, func(i, j int) bool { return streaks[i].Streak < streaks[j].Streak })
	for _, s := range streaks {
		writeField(&sb, "streak", fmt.Sprintf("%d:%d", s.Streak, s.Attribute))
	}

	thresholds := append([]ThresholdLevel(nil), def.Thresholds...)
	sort.Slice(thresholds, func(i, j int) bool { return thresholds[i].Value < thresholds[j].Value })
	for _, t := range thresholds {
		writeField(&sb, "thresholdLevel", fmt.Sprintf("%s:%d", trimFloat(t.Value), t.Attribute))
	}

	conditions := append([]ConditionDef(nil), def.Conditions...)
	sort.SliceStable(conditions, func(i, j int) bool { return conditions[i].Priority < conditions[j].Priority })
	for _, c := range conditions {
		writeField(&sb, "condition", fmt.Sprintf("%d:%d:%s", c.Priority, c.Attribute, renderClauses(c.Criteria)))
	}

	writeField(&sb, "criteria", renderClauses(def.Criteria))

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:16])
}

func writeField(sb *strings.Builder, name, value string) {
	sb.WriteString(name)
	sb.WriteByte('=')
	sb.WriteString(value)
	sb.WriteByte('\n')
}

// renderClauses keeps clause order: clause order is semantically neutral
// (conjunction) but reordering a definition is still a redefinition.
func renderClauses(clauses []Clause) string {
	parts := make([]string, 0, len(clauses))
	for _, c := range clauses {
		parts = append(parts, fmt.Sprintf("%s %s %v", c.Field, c.Op, c.Value))
	}
	return strings.Join(parts, "&&")
}

func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
