package rule

import (
	"github.com/AccelByte/extend-gamification-engine/pkg/award"
	"github.com/AccelByte/extend-gamification-engine/pkg/event"
)

// streakRule counts consecutive matching events. A relevant event that
// fails the criteria breaks the streak and resets the counter; counter
// values present in the level map each fire one award. Re-reaching a
// level after a reset awards it again.
type streakRule struct {
	baseRule
	levels streakLevels
}

func (r *streakRule) OnEvent(ev event.Event, st *State) ([]award.Notification, error) {
	if !r.matches(ev) {
		st.StreakCount = 0
		st.StreakStart = 0
		return nil, nil
	}

	if st.StreakCount == 0 {
		st.StreakStart = ev.Timestamp
	}
	st.StreakCount++
	st.LastMatchTS = ev.Timestamp

	if attr, ok := r.levels[st.StreakCount]; ok {
		return []award.Notification{r.notify(ev, attr)}, nil
	}
	return nil, nil
}

// timeBoundedStreakRule is a streak whose matches must also stay within a
// time window. With consecutive=true the window slides with the previous
// matching event; with consecutive=false it is anchored to the streak's
// first event. A gap beyond the window restarts the streak at this event
// even though the filter still matched.
type timeBoundedStreakRule struct {
	baseRule
	levels      streakLevels
	timeUnitMs  int64
	consecutive bool
}

func (r *timeBoundedStreakRule) OnEvent(ev event.Event, st *State) ([]award.Notification, error) {
	if !r.matches(ev) {
		st.StreakCount = 0
		st.StreakStart = 0
		return nil, nil
	}

	if st.StreakCount > 0 && r.expired(ev, st) {
		st.StreakCount = 0
	}

	if st.StreakCount == 0 {
		st.StreakStart = ev.Timestamp
	}
	st.StreakCount++
	st.LastMatchTS = ev.Timestamp

	if attr, ok := r.levels[st.StreakCount]; ok {
		return []award.Notification{r.notify(ev, attr)}, nil
	}
	return nil, nil
}

func (r *timeBoundedStreakRule) expired(ev event.Event, st *State) bool {
	anchor := st.StreakStart
	if r.consecutive {
		anchor = st.LastMatchTS
	}
	return anchor > 0 && ev.Timestamp-anchor > r.timeUnitMs
}
