package dispatch

import (
	"context"
	"sync"

	"github.com/AccelByte/extend-gamification-engine/pkg/event"
	"github.com/AccelByte/extend-gamification-engine/pkg/metrics"
	"github.com/AccelByte/extend-gamification-engine/pkg/rule"
	"github.com/AccelByte/extend-gamification-engine/pkg/stream"
	"github.com/sirupsen/logrus"
)

const userQueueSize = 64

// gameRuntime is the live aggregate for one running game: the compiled
// engine, the open event subscription, and per-user dispatch queues.
//
// Events for one user are served by a single worker goroutine, which
// preserves delivery order per user and makes every (game,user,rule)
// state record single-writer. Users run in parallel.
type gameRuntime struct {
	gameID int
	engine *rule.Engine
	sub    stream.Subscription

	mu      sync.RWMutex
	queues  map[int64]chan event.Event
	closed  bool
	workers sync.WaitGroup

	pumpDone chan struct{}
}

func newGameRuntime(gameID int, engine *rule.Engine, sub stream.Subscription) *gameRuntime {
	return &gameRuntime{
		gameID:   gameID,
		engine:   engine,
		sub:      sub,
		queues:   make(map[int64]chan event.Event),
		pumpDone: make(chan struct{}),
	}
}

func (rt *gameRuntime) start() {
	go rt.pump()
}

// pump consumes the game's event subscription. Each delivery is acked
// after successful routing into a user queue; rule completion is
// asynchronous and does not gate the ack. Poison messages are acked and
// dropped. One slow game only ever blocks its own pump.
func (rt *gameRuntime) pump() {
	defer close(rt.pumpDone)
	ctx := context.Background()

	for d := range rt.sub.Deliveries() {
		env, err := stream.Decode(d.Body)
		if err != nil {
			logrus.Warnf("game %d: dropping poison message %s: %v", rt.gameID, d.Tag, err)
			metrics.PoisonMessages.Inc()
			rt.ack(ctx, d.Tag)
			continue
		}
		if env.Type != stream.TypeEvent {
			logrus.Warnf("game %d: non-event message %s on event channel, dropping", rt.gameID, d.Tag)
			rt.ack(ctx, d.Tag)
			continue
		}
		ev, err := env.Event()
		if err != nil {
			logrus.Warnf("game %d: dropping malformed event %s: %v", rt.gameID, d.Tag, err)
			metrics.PoisonMessages.Inc()
			rt.ack(ctx, d.Tag)
			continue
		}
		if ev.GameID != rt.gameID {
			logrus.Warnf("game %d: event %s addressed to game %d, dropping", rt.gameID, d.Tag, ev.GameID)
			rt.ack(ctx, d.Tag)
			continue
		}

		if err := rt.route(ev); err != nil {
			// Runtime is draining; leave the message for redelivery.
			metrics.MessagesNacked.Inc()
			if nerr := rt.sub.Nack(ctx, d.Tag, true); nerr != nil {
				logrus.Errorf("game %d: failed to nack %s: %v", rt.gameID, d.Tag, nerr)
			}
			continue
		}
		rt.ack(ctx, d.Tag)
	}
}

func (rt *gameRuntime) ack(ctx context.Context, tag string) {
	metrics.MessagesAcked.Inc()
	if err := rt.sub.Ack(ctx, tag); err != nil {
		logrus.Errorf("game %d: failed to ack %s: %v", rt.gameID, tag, err)
	}
}

// route hands an event to its user's queue, creating the queue and worker
// on first sight of the user.
func (rt *gameRuntime) route(ev event.Event) error {
	rt.mu.RLock()
	if rt.closed {
		rt.mu.RUnlock()
		return ErrGameNotRunning
	}
	q, ok := rt.queues[ev.UserID]
	if ok {
		// Send under the read lock: stop() takes the write lock before
		// closing queues, so the channel cannot close mid-send.
		q <- ev
		rt.mu.RUnlock()
		return nil
	}
	rt.mu.RUnlock()

	rt.mu.Lock()
	if rt.closed {
		rt.mu.Unlock()
		return ErrGameNotRunning
	}
	q, ok = rt.queues[ev.UserID]
	if !ok {
		q = make(chan event.Event, userQueueSize)
		rt.queues[ev.UserID] = q
		rt.workers.Add(1)
		go rt.userWorker(q)
	}
	q <- ev
	rt.mu.Unlock()
	return nil
}

// userWorker serializes evaluation for one user.
func (rt *gameRuntime) userWorker(q <-chan event.Event) {
	defer rt.workers.Done()
	ctx := context.Background()
	for ev := range q {
		rt.engine.HandleEvent(ctx, ev)
	}
}

// stop closes the subscription first so no new events are admitted, then
// drains all in-flight evaluations before returning. Awards produced by
// in-flight work are still emitted.
func (rt *gameRuntime) stop() {
	if err := rt.sub.Close(); err != nil {
		logrus.Errorf("game %d: failed to close event subscription: %v", rt.gameID, err)
	}
	<-rt.pumpDone

	rt.mu.Lock()
	rt.closed = true
	for _, q := range rt.queues {
		close(q)
	}
	rt.mu.Unlock()

	rt.workers.Wait()
}
