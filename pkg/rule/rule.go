package rule

import (
	"github.com/AccelByte/extend-gamification-engine/pkg/award"
	"github.com/AccelByte/extend-gamification-engine/pkg/event"
)

// Executable is the compiled, runtime form of a Definition. One instance
// is shared read-only across all users of a game; all mutable evaluation
// state lives in the State record passed to OnEvent.
type Executable interface {
	// ID returns the deterministic definition hash.
	ID() string

	// Name returns the definition name.
	Name() string

	// Kind returns the rule kind.
	Kind() Kind

	// AppliesTo reports whether the rule wants to see this event at all.
	// Events of a different type are invisible to the rule; events of the
	// right type that fail the criteria still reach OnEvent, because
	// streak kinds treat them as streak breaks.
	AppliesTo(ev event.Event) bool

	// OnEvent runs the state machine for one event, mutating st in place.
	// Returned notifications are emitted at least once by the caller.
	// An *ExpressionError means this event is unmatched for this rule
	// only; st is left unchanged in that case.
	OnEvent(ev event.Event, st *State) ([]award.Notification, error)
}

// baseRule carries the identity and event filter shared by every kind.
type baseRule struct {
	id        string
	name      string
	kind      Kind
	eventType string
	criteria  criteria
}

func (b baseRule) ID() string { return b.id }

func (b baseRule) Name() string { return b.name }

func (b baseRule) Kind() Kind { return b.kind }

func (b baseRule) AppliesTo(ev event.Event) bool {
	return b.eventType == "" || ev.Type == b.eventType
}

// matches reports whether the event satisfies the full filter, criteria
// included.
func (b baseRule) matches(ev event.Event) bool {
	return b.AppliesTo(ev) && b.criteria.match(ev)
}

// notify builds a notification for a qualifying transition.
func (b baseRule) notify(ev event.Event, attribute int) award.Notification {
	return award.Notification{
		UserID:    ev.UserID,
		GameID:    ev.GameID,
		RuleID:    b.id,
		RuleName:  b.name,
		Kind:      string(b.kind),
		Attribute: attribute,
		Timestamp: ev.Timestamp,
		EventIDs:  []string{ev.ID},
	}
}

// streakLevels is a streak-count to attribute lookup used by the streak
// family of kinds.
type streakLevels map[int]int

func toStreakLevels(levels []StreakLevel) streakLevels {
	m := make(streakLevels, len(levels))
	for _, l := range levels {
		m[l.Streak] = l.Attribute
	}
	return m
}
