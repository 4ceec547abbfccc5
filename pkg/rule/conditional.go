package rule

import (
	"github.com/AccelByte/extend-gamification-engine/pkg/award"
	"github.com/AccelByte/extend-gamification-engine/pkg/event"
)

type compiledCondition struct {
	priority  int
	criteria  criteria
	attribute int
}

// conditionalRule evaluates an ordered list of boolean criteria per event;
// the first satisfied condition fires an award. Total awards per user are
// capped at maxAwardTimes (zero = unbounded).
type conditionalRule struct {
	baseRule
	conditions    []compiledCondition // sorted by priority at compile time
	maxAwardTimes int
}

func (r *conditionalRule) OnEvent(ev event.Event, st *State) ([]award.Notification, error) {
	if !r.AppliesTo(ev) || !r.criteria.match(ev) {
		return nil, nil
	}
	if r.maxAwardTimes > 0 && st.AwardCount >= r.maxAwardTimes {
		return nil, nil
	}

	for _, cond := range r.conditions {
		if cond.criteria.match(ev) {
			st.AwardCount++
			st.LastMatchTS = ev.Timestamp
			return []award.Notification{r.notify(ev, cond.attribute)}, nil
		}
	}
	return nil, nil
}
