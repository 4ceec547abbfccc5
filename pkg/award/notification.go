package award

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Notification is emitted when a rule state machine makes a qualifying
// transition. It is handed to a Sink at least once and not retained by
// the engine.
type Notification struct {
	UserID    int64    `json:"userId"`
	GameID    int      `json:"gameId"`
	RuleID    string   `json:"ruleId"`
	RuleName  string   `json:"ruleName,omitempty"`
	Kind      string   `json:"kind"`
	Attribute int      `json:"attribute"` // badge attribute/level or points awarded
	Timestamp int64    `json:"ts"`
	EventIDs  []string `json:"contributingEventIds,omitempty"`
}

// Sink receives award notifications. Implementations must be safe for
// concurrent use; delivery guarantees beyond at-least-once are up to the
// implementation.
type Sink interface {
	Push(ctx context.Context, n Notification) error
}

// LogSink writes notifications to the application log. Useful as a
// development sink and as a fallback when no broker sink is configured.
type LogSink struct{}

func (LogSink) Push(_ context.Context, n Notification) error {
	logrus.Infof("award: rule %s (%s) granted attribute %d to user %d in game %d",
		n.RuleID, n.Kind, n.Attribute, n.UserID, n.GameID)
	return nil
}

// CollectorSink accumulates notifications in memory for tests.
type CollectorSink struct {
	mu            sync.Mutex
	notifications []Notification
}

func (c *CollectorSink) Push(_ context.Context, n Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifications = append(c.notifications, n)
	return nil
}

// Notifications returns a copy of everything pushed so far.
func (c *CollectorSink) Notifications() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.notifications))
	copy(out, c.notifications)
	return out
}
