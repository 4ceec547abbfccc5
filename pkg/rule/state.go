package rule

import "context"

// State is the per-(game,user,rule) evaluation record. Which fields a
// kind uses depends on its state machine; unused fields stay zero and
// are omitted from the persisted JSON. The dispatch layer serializes all
// events of one user, so every record has a single writer.
type State struct {
	// Streak family.
	StreakCount int   `json:"streakCount,omitempty"`
	StreakStart int64 `json:"streakStart,omitempty"`

	// LastMatchTS is the timestamp of the last matching event.
	LastMatchTS int64 `json:"lastMatchTs,omitempty"`

	// FIRST_EVENT and CONDITIONAL.
	Awarded    bool `json:"awarded,omitempty"`
	AwardCount int  `json:"awardCount,omitempty"`

	// Periodic family: the current fixed-window bucket.
	PeriodStart     int64   `json:"periodStart,omitempty"`
	PeriodTotal     float64 `json:"periodTotal,omitempty"`
	PeriodCount     int     `json:"periodCount,omitempty"`
	PeriodQualified bool    `json:"periodQualified,omitempty"`

	// Periodic streak family: the cross-period counter.
	LastQualifiedPeriod int64 `json:"lastQualifiedPeriod,omitempty"`
	PeriodStreak        int   `json:"periodStreak,omitempty"`
}

// StateKey identifies one evaluation record.
type StateKey struct {
	GameID int
	UserID int64
	RuleID string
}

// StateStore persists evaluation records. Get returns nil (not an error)
// for a record that does not exist yet.
type StateStore interface {
	Get(ctx context.Context, key StateKey) (*State, error)
	Put(ctx context.Context, key StateKey, st *State) error
	Delete(ctx context.Context, key StateKey) error
}
