package rule

import (
	"context"
	"errors"
	"strconv"

	"github.com/AccelByte/extend-gamification-engine/pkg/award"
	"github.com/AccelByte/extend-gamification-engine/pkg/event"
	"github.com/AccelByte/extend-gamification-engine/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// Engine evaluates one game's events against that game's compiled rules.
// Rules are read-only after construction; all mutable state goes through
// the state store. The caller (the dispatch runtime) guarantees events for
// one user arrive serialized, which makes each (game,user,rule) state
// record single-writer.
type Engine struct {
	gameID int
	rules  []Executable
	store  StateStore
	sink   award.Sink
}

// NewEngine creates an evaluation engine for one game.
func NewEngine(gameID int, rules []Executable, store StateStore, sink award.Sink) *Engine {
	return &Engine{
		gameID: gameID,
		rules:  rules,
		store:  store,
		sink:   sink,
	}
}

// GameID returns the game this engine serves.
func (e *Engine) GameID() int { return e.gameID }

// Rules returns the compiled rule set.
func (e *Engine) Rules() []Executable { return e.rules }

// HandleEvent routes an event to every applicable rule, persists updated
// state, and pushes resulting notifications to the sink. A failure in one
// rule is logged and skipped; it never aborts the other rules for this
// event, other events, or other users.
func (e *Engine) HandleEvent(ctx context.Context, ev event.Event) {
	gameLabel := strconv.Itoa(e.gameID)
	metrics.EventsProcessed.WithLabelValues(gameLabel).Inc()

	for _, r := range e.rules {
		if !r.AppliesTo(ev) {
			continue
		}

		key := StateKey{GameID: e.gameID, UserID: ev.UserID, RuleID: r.ID()}
		st, err := e.store.Get(ctx, key)
		if err != nil {
			logrus.Errorf("failed to load state for rule %s user %d: %v", r.ID(), ev.UserID, err)
			metrics.EvaluationErrors.WithLabelValues(gameLabel).Inc()
			continue
		}
		if st == nil {
			st = &State{}
		}

		notifications, err := r.OnEvent(ev, st)
		if err != nil {
			var exprErr *ExpressionError
			if errors.As(err, &exprErr) {
				logrus.Warnf("rule %s skipped event %s for user %d: %v", r.ID(), ev.ID, ev.UserID, exprErr)
			} else {
				logrus.Errorf("rule %s evaluation failed for user %d: %v", r.ID(), ev.UserID, err)
			}
			metrics.EvaluationErrors.WithLabelValues(gameLabel).Inc()
			continue
		}

		if err := e.store.Put(ctx, key, st); err != nil {
			logrus.Errorf("failed to persist state for rule %s user %d: %v", r.ID(), ev.UserID, err)
			metrics.EvaluationErrors.WithLabelValues(gameLabel).Inc()
			continue
		}

		for _, n := range notifications {
			logrus.Infof("rule %s (%s) awarded attribute %d to user %d in game %d",
				r.ID(), r.Kind(), n.Attribute, n.UserID, n.GameID)
			metrics.AwardsEmitted.WithLabelValues(gameLabel, n.Kind).Inc()
			if err := e.sink.Push(ctx, n); err != nil {
				logrus.Errorf("failed to push award notification for rule %s: %v", r.ID(), err)
			}
		}
	}
}
