package rule

import (
	"github.com/AccelByte/extend-gamification-engine/pkg/award"
	"github.com/AccelByte/extend-gamification-engine/pkg/event"
)

// periodicStreakRule composes the periodic bucket test with a cross-period
// streak: a period qualifies once its accumulated value (or occurrence
// count) reaches the single threshold, and qualifying periods drive a
// streak counter evaluated against the level map. With consecutive=true a
// gap period resets the streak to 1; with consecutive=false qualifying
// periods accumulate regardless of gaps.
type periodicStreakRule struct {
	baseRule
	timeUnitMs  int64
	threshold   float64
	levels      streakLevels
	consecutive bool
	extractor   *valueExtractor // nil for occurrence counting
}

func (r *periodicStreakRule) OnEvent(ev event.Event, st *State) ([]award.Notification, error) {
	if !r.matches(ev) {
		return nil, nil
	}

	value := 1.0
	if r.extractor != nil {
		v, err := r.extractor.extract(ev)
		if err != nil {
			return nil, err
		}
		value = v
	}

	rolloverPeriod(st, ev.Timestamp, r.timeUnitMs)

	st.PeriodTotal += value
	st.PeriodCount++
	st.LastMatchTS = ev.Timestamp

	// Only the transition into the qualified state advances the streak;
	// further events in an already-qualified period are no-ops here.
	if st.PeriodQualified || st.PeriodTotal < r.threshold {
		return nil, nil
	}
	st.PeriodQualified = true

	periodIndex := st.PeriodStart / r.timeUnitMs
	switch {
	case st.PeriodStreak == 0:
		st.PeriodStreak = 1
	case !r.consecutive || periodIndex == st.LastQualifiedPeriod+1:
		st.PeriodStreak++
	default:
		st.PeriodStreak = 1
	}
	st.LastQualifiedPeriod = periodIndex

	if attr, ok := r.levels[st.PeriodStreak]; ok {
		return []award.Notification{r.notify(ev, attr)}, nil
	}
	return nil, nil
}
