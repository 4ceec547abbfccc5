package rule

import (
	"github.com/AccelByte/extend-gamification-engine/pkg/award"
	"github.com/AccelByte/extend-gamification-engine/pkg/event"
)

// periodicRule accumulates into a fixed-period bucket and fires an award
// for every configured threshold the running total crosses within the
// period. With an extractor it accumulates a numeric event value
// (PERIODIC_ACCUMULATION); without one it counts occurrences
// (PERIODIC_OCCURRENCE). Buckets reset at period boundaries.
type periodicRule struct {
	baseRule
	timeUnitMs int64
	thresholds []ThresholdLevel // sorted ascending at compile time
	extractor  *valueExtractor  // nil for occurrence counting
}

func (r *periodicRule) OnEvent(ev event.Event, st *State) ([]award.Notification, error) {
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

	before := st.PeriodTotal
	st.PeriodTotal += value
	st.PeriodCount++
	st.LastMatchTS = ev.Timestamp

	var out []award.Notification
	for _, th := range r.thresholds {
		if before < th.Value && st.PeriodTotal >= th.Value {
			out = append(out, r.notify(ev, th.Attribute))
		}
	}
	return out, nil
}

// rolloverPeriod resets the bucket when the event falls outside the
// current fixed window. Window boundaries are multiples of the time unit.
func rolloverPeriod(st *State, ts, timeUnitMs int64) {
	periodStart := ts - ts%timeUnitMs
	if st.PeriodStart == periodStart {
		return
	}
	st.PeriodStart = periodStart
	st.PeriodTotal = 0
	st.PeriodCount = 0
	st.PeriodQualified = false
}
