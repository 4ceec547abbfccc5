package rule

import (
	"github.com/AccelByte/extend-gamification-engine/pkg/award"
	"github.com/AccelByte/extend-gamification-engine/pkg/event"
)

// firstEventRule fires exactly once, on the first event matching the
// filter. Every later matching event is a no-op.
type firstEventRule struct {
	baseRule
	attribute int
}

func (r *firstEventRule) OnEvent(ev event.Event, st *State) ([]award.Notification, error) {
	if st.Awarded || !r.matches(ev) {
		return nil, nil
	}
	st.Awarded = true
	st.LastMatchTS = ev.Timestamp
	return []award.Notification{r.notify(ev, r.attribute)}, nil
}
