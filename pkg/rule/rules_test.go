package rule

import (
	"testing"

	"github.com/AccelByte/extend-gamification-engine/pkg/award"
	"github.com/AccelByte/extend-gamification-engine/pkg/event"
)

const dayMs = int64(24 * 60 * 60 * 1000)

func mustCompile(t *testing.T, def Definition) Executable {
	t.Helper()
	r, err := Compile(def)
	if err != nil {
		t.Fatalf("Compile(%s) error = %v", def.Name, err)
	}
	return r
}

func ev(eventType string, ts int64, attrs map[string]interface{}) event.Event {
	return event.Event{
		ID:         "ev",
		GameID:     1,
		UserID:     7,
		Type:       eventType,
		Timestamp:  ts,
		Attributes: attrs,
	}
}

// feed runs a sequence of events through one rule against a single state
// record and returns the notifications per event.
func feed(t *testing.T, r Executable, st *State, events ...event.Event) [][]award.Notification {
	t.Helper()
	out := make([][]award.Notification, 0, len(events))
	for _, e := range events {
		ns, err := r.OnEvent(e, st)
		if err != nil {
			t.Fatalf("OnEvent() error = %v", err)
		}
		out = append(out, ns)
	}
	return out
}

func attrsOf(batches [][]award.Notification) []int {
	var out []int
	for _, batch := range batches {
		for _, n := range batch {
			out = append(out, n.Attribute)
		}
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFirstEventFiresOnce(t *testing.T) {
	r := mustCompile(t, Definition{
		Name: "first-login", Kind: KindFirstEvent, Event: "login", Attribute: 10,
	})

	st := &State{}
	got := attrsOf(feed(t, r, st,
		ev("login", 1000, nil),
		ev("login", 2000, nil),
		ev("login", 3000, nil),
	))
	if !equalInts(got, []int{10}) {
		t.Errorf("awards = %v, want [10]", got)
	}
	if !st.Awarded {
		t.Error("state should record the award")
	}
}

func TestFirstEventWaitsForCriteria(t *testing.T) {
	r := mustCompile(t, Definition{
		Name: "first-mobile-login", Kind: KindFirstEvent, Event: "login", Attribute: 10,
		Criteria: []Clause{{Field: "platform", Op: OpEqual, Value: "mobile"}},
	})

	st := &State{}
	got := attrsOf(feed(t, r, st,
		ev("login", 1000, map[string]interface{}{"platform": "pc"}),
		ev("login", 2000, map[string]interface{}{"platform": "mobile"}),
	))
	if !equalInts(got, []int{10}) {
		t.Errorf("awards = %v, want [10]", got)
	}
}

func TestStreakAwardsEachLevelOnce(t *testing.T) {
	r := mustCompile(t, Definition{
		Name: "streaks", Kind: KindStreakN, Event: "login",
		Streaks: []StreakLevel{{Streak: 2, Attribute: 20}, {Streak: 4, Attribute: 40}},
	})

	st := &State{}
	got := attrsOf(feed(t, r, st,
		ev("login", 1, nil), // 1
		ev("login", 2, nil), // 2 -> 20
		ev("login", 3, nil), // 3
		ev("login", 4, nil), // 4 -> 40
		ev("login", 5, nil), // 5, past the top level
	))
	if !equalInts(got, []int{20, 40}) {
		t.Errorf("awards = %v, want [20 40]", got)
	}
}

func TestStreakBreakResetsAndReawards(t *testing.T) {
	r := mustCompile(t, Definition{
		Name: "streaks", Kind: KindStreakN, Event: "login",
		Criteria: []Clause{{Field: "success", Op: OpEqual, Value: true}},
		Streaks:  []StreakLevel{{Streak: 2, Attribute: 20}},
	})
	okAttrs := map[string]interface{}{"success": true}
	failAttrs := map[string]interface{}{"success": false}

	st := &State{}
	got := attrsOf(feed(t, r, st,
		ev("login", 1, okAttrs),   // 1
		ev("login", 2, okAttrs),   // 2 -> 20
		ev("login", 3, failAttrs), // break
		ev("login", 4, okAttrs),   // 1
		ev("login", 5, okAttrs),   // 2 -> 20 again
	))
	if !equalInts(got, []int{20, 20}) {
		t.Errorf("awards = %v, want [20 20]", got)
	}
}

func TestStreakIgnoresOtherEventTypes(t *testing.T) {
	r := mustCompile(t, Definition{
		Name: "streaks", Kind: KindStreakN, Event: "login",
		Streaks: []StreakLevel{{Streak: 2, Attribute: 20}},
	})

	// An unrelated event type must not break the streak. AppliesTo is the
	// engine's routing filter; verify it and keep the unrelated event out.
	if r.AppliesTo(ev("purchase", 2, nil)) {
		t.Fatal("rule should not apply to unrelated event types")
	}

	st := &State{}
	got := attrsOf(feed(t, r, st,
		ev("login", 1, nil),
		ev("login", 3, nil),
	))
	if !equalInts(got, []int{20}) {
		t.Errorf("awards = %v, want [20]", got)
	}
}

func TestConditionalFirstMatchByPriority(t *testing.T) {
	r := mustCompile(t, Definition{
		Name: "spender", Kind: KindConditional, Event: "purchase",
		Conditions: []ConditionDef{
			// Authored out of order on purpose.
			{Priority: 2, Attribute: 25, Criteria: []Clause{{Field: "amount", Op: OpGreaterThanOrEqual, Value: 50}}},
			{Priority: 1, Attribute: 40, Criteria: []Clause{{Field: "amount", Op: OpGreaterThanOrEqual, Value: 100}}},
		},
	})

	st := &State{}
	got := attrsOf(feed(t, r, st,
		ev("purchase", 1, map[string]interface{}{"amount": 150}), // matches both, priority 1 wins
		ev("purchase", 2, map[string]interface{}{"amount": 60}),  // only priority 2
		ev("purchase", 3, map[string]interface{}{"amount": 10}),  // neither
	))
	if !equalInts(got, []int{40, 25}) {
		t.Errorf("awards = %v, want [40 25]", got)
	}
}

func TestConditionalMaxAwardTimes(t *testing.T) {
	r := mustCompile(t, Definition{
		Name: "capped", Kind: KindConditional, Event: "purchase",
		MaxAwardTimes: 2,
		Conditions: []ConditionDef{
			{Priority: 1, Attribute: 5, Criteria: []Clause{{Field: "amount", Op: OpGreaterThan, Value: 0}}},
		},
	})

	st := &State{}
	buy := map[string]interface{}{"amount": 10}
	got := attrsOf(feed(t, r, st,
		ev("purchase", 1, buy),
		ev("purchase", 2, buy),
		ev("purchase", 3, buy), // over the cap
	))
	if !equalInts(got, []int{5, 5}) {
		t.Errorf("awards = %v, want [5 5]", got)
	}
	if st.AwardCount != 2 {
		t.Errorf("AwardCount = %d, want 2", st.AwardCount)
	}
}

func TestTimeBoundedStreakConsecutiveWindow(t *testing.T) {
	// consecutive: each match must come within 1 day of the previous one.
	r := mustCompile(t, Definition{
		Name: "daily", Kind: KindTimeBoundedStreak, Event: "login",
		TimeUnit: "24h",
		Streaks:  []StreakLevel{{Streak: 3, Attribute: 30}},
	})

	st := &State{}
	got := attrsOf(feed(t, r, st,
		ev("login", 0, nil),
		ev("login", dayMs, nil),     // exactly one day later, still inside
		ev("login", 2*dayMs, nil),   // 3 -> 30
		ev("login", 4*dayMs+1, nil), // gap > 1 day, restart at 1
		ev("login", 5*dayMs, nil),
		ev("login", 6*dayMs, nil), // 3 -> 30 again
	))
	if !equalInts(got, []int{30, 30}) {
		t.Errorf("awards = %v, want [30 30]", got)
	}
}

func TestTimeBoundedStreakAnchoredWindow(t *testing.T) {
	// consecutive=false: the whole streak must fit within 1 day of its
	// first event.
	consecutive := false
	r := mustCompile(t, Definition{
		Name: "burst", Kind: KindTimeBoundedStreak, Event: "login",
		TimeUnit:    "24h",
		Consecutive: &consecutive,
		Streaks:     []StreakLevel{{Streak: 3, Attribute: 30}},
	})

	st := &State{}
	got := attrsOf(feed(t, r, st,
		ev("login", 0, nil),
		ev("login", dayMs/2, nil),
		ev("login", dayMs+1, nil), // outside the anchored window, restart
		ev("login", dayMs+2, nil),
		ev("login", dayMs+3, nil), // 3 within the new window -> 30
	))
	if !equalInts(got, []int{30}) {
		t.Errorf("awards = %v, want [30]", got)
	}
}

func TestPeriodicAccumulationThresholds(t *testing.T) {
	r := mustCompile(t, Definition{
		Name: "weekly-distance", Kind: KindPeriodicAccumulation, Event: "workout",
		TimeUnit:        "7d",
		ValueExpression: "distance",
		Thresholds: []ThresholdLevel{
			{Value: 5, Attribute: 15},
			{Value: 10, Attribute: 30},
		},
	})

	st := &State{}
	got := attrsOf(feed(t, r, st,
		ev("workout", 1, map[string]interface{}{"distance": 3}), // total 3
		ev("workout", 2, map[string]interface{}{"distance": 4}), // total 7 -> 15
		ev("workout", 3, map[string]interface{}{"distance": 5}), // total 12 -> 30
	))
	if !equalInts(got, []int{15, 30}) {
		t.Errorf("awards = %v, want [15 30]", got)
	}
}

func TestPeriodicAccumulationSingleEventCrossesBoth(t *testing.T) {
	r := mustCompile(t, Definition{
		Name: "weekly-distance", Kind: KindPeriodicAccumulation, Event: "workout",
		TimeUnit:        "7d",
		ValueExpression: "distance",
		Thresholds: []ThresholdLevel{
			{Value: 5, Attribute: 15},
			{Value: 10, Attribute: 30},
		},
	})

	st := &State{}
	got := attrsOf(feed(t, r, st,
		ev("workout", 1, map[string]interface{}{"distance": 20}),
	))
	if !equalInts(got, []int{15, 30}) {
		t.Errorf("one event crossing both thresholds: awards = %v, want [15 30]", got)
	}
}

func TestPeriodicBucketResetsAcrossPeriods(t *testing.T) {
	weekMs := 7 * dayMs
	r := mustCompile(t, Definition{
		Name: "weekly-distance", Kind: KindPeriodicAccumulation, Event: "workout",
		TimeUnit:        "7d",
		ValueExpression: "distance",
		Thresholds:      []ThresholdLevel{{Value: 5, Attribute: 15}},
	})

	st := &State{}
	got := attrsOf(feed(t, r, st,
		ev("workout", 1, map[string]interface{}{"distance": 7}),        // week 0 -> 15
		ev("workout", weekMs+1, map[string]interface{}{"distance": 3}), // week 1, fresh bucket
		ev("workout", weekMs+2, map[string]interface{}{"distance": 3}), // total 6 -> 15 again
	))
	if !equalInts(got, []int{15, 15}) {
		t.Errorf("awards = %v, want [15 15]", got)
	}
}

func TestPeriodicOccurrenceCounts(t *testing.T) {
	r := mustCompile(t, Definition{
		Name: "weekly-workouts", Kind: KindPeriodicOccurrence, Event: "workout",
		TimeUnit:   "7d",
		Thresholds: []ThresholdLevel{{Value: 3, Attribute: 12}},
	})

	st := &State{}
	got := attrsOf(feed(t, r, st,
		ev("workout", 1, nil),
		ev("workout", 2, nil),
		ev("workout", 3, nil), // third occurrence -> 12
		ev("workout", 4, nil), // past the threshold, no re-award in period
	))
	if !equalInts(got, []int{12}) {
		t.Errorf("awards = %v, want [12]", got)
	}
}

func TestPeriodicStreakConsecutive(t *testing.T) {
	weekMs := 7 * dayMs
	r := mustCompile(t, Definition{
		Name: "regular", Kind: KindPeriodicOccurrenceStreak, Event: "match",
		TimeUnit:  "7d",
		Threshold: 2,
		Streaks:   []StreakLevel{{Streak: 3, Attribute: 60}},
	})

	st := &State{}
	got := attrsOf(feed(t, r, st,
		// Week 0 qualifies.
		ev("match", 1, nil),
		ev("match", 2, nil),
		// Week 1 qualifies.
		ev("match", weekMs+1, nil),
		ev("match", weekMs+2, nil),
		// Week 2 qualifies -> streak 3 -> 60.
		ev("match", 2*weekMs+1, nil),
		ev("match", 2*weekMs+2, nil),
	))
	if !equalInts(got, []int{60}) {
		t.Errorf("awards = %v, want [60]", got)
	}
	if st.PeriodStreak != 3 {
		t.Errorf("PeriodStreak = %d, want 3", st.PeriodStreak)
	}
}

func TestPeriodicStreakGapResetsWhenConsecutive(t *testing.T) {
	weekMs := 7 * dayMs
	r := mustCompile(t, Definition{
		Name: "regular", Kind: KindPeriodicOccurrenceStreak, Event: "match",
		TimeUnit:  "7d",
		Threshold: 1,
		Streaks:   []StreakLevel{{Streak: 2, Attribute: 60}},
	})

	st := &State{}
	got := attrsOf(feed(t, r, st,
		ev("match", 1, nil),          // week 0 qualifies, streak 1
		ev("match", 3*weekMs+1, nil), // week 3: gap, streak resets to 1
		ev("match", 4*weekMs+1, nil), // week 4: adjacent -> streak 2 -> 60
	))
	if !equalInts(got, []int{60}) {
		t.Errorf("awards = %v, want [60]", got)
	}
}

func TestPeriodicStreakGapToleratedWhenNotConsecutive(t *testing.T) {
	weekMs := 7 * dayMs
	consecutive := false
	r := mustCompile(t, Definition{
		Name: "lenient", Kind: KindPeriodicOccurrenceStreak, Event: "match",
		TimeUnit:    "7d",
		Threshold:   1,
		Consecutive: &consecutive,
		Streaks:     []StreakLevel{{Streak: 2, Attribute: 60}},
	})

	st := &State{}
	got := attrsOf(feed(t, r, st,
		ev("match", 1, nil),          // week 0 qualifies, streak 1
		ev("match", 3*weekMs+1, nil), // week 3: gap tolerated -> streak 2 -> 60
	))
	if !equalInts(got, []int{60}) {
		t.Errorf("awards = %v, want [60]", got)
	}
}

func TestPeriodicAccumulationStreak(t *testing.T) {
	weekMs := 7 * dayMs
	r := mustCompile(t, Definition{
		Name: "consistent-distance", Kind: KindPeriodicAccumulationStreak, Event: "workout",
		TimeUnit:        "7d",
		Threshold:       10,
		ValueExpression: "distance",
		Streaks:         []StreakLevel{{Streak: 2, Attribute: 45}},
	})

	st := &State{}
	got := attrsOf(feed(t, r, st,
		ev("workout", 1, map[string]interface{}{"distance": 6}),
		ev("workout", 2, map[string]interface{}{"distance": 6}), // week 0 qualifies
		ev("workout", weekMs+1, map[string]interface{}{"distance": 12}), // week 1 qualifies -> streak 2 -> 45
		ev("workout", weekMs+2, map[string]interface{}{"distance": 12}), // already qualified, no-op
	))
	if !equalInts(got, []int{45}) {
		t.Errorf("awards = %v, want [45]", got)
	}
}

func TestAccumulationExpressionErrorLeavesStateUntouched(t *testing.T) {
	r := mustCompile(t, Definition{
		Name: "weekly-distance", Kind: KindPeriodicAccumulation, Event: "workout",
		TimeUnit:        "7d",
		ValueExpression: "distance",
		Thresholds:      []ThresholdLevel{{Value: 5, Attribute: 15}},
	})

	st := &State{}
	if _, err := r.OnEvent(ev("workout", 1, map[string]interface{}{"distance": 3}), st); err != nil {
		t.Fatalf("OnEvent() error = %v", err)
	}
	before := *st

	_, err := r.OnEvent(ev("workout", 2, nil), st) // missing attribute
	if err == nil {
		t.Fatal("expected an expression error for the missing attribute")
	}
	if *st != before {
		t.Errorf("state changed on expression error: %+v vs %+v", *st, before)
	}
}
