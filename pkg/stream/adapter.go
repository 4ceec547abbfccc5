package stream

import (
	"context"
	"errors"
	"sync"

	"github.com/AccelByte/extend-gamification-engine/pkg/event"
	"github.com/AccelByte/extend-gamification-engine/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// Dispatcher is the supervisor-side contract the adapter hands decoded
// messages to. Errors implementing `Transient() bool` (returning true)
// are retried via nack-with-requeue; all other errors are terminal for
// the message.
type Dispatcher interface {
	// ExecuteCommand applies a game lifecycle command.
	ExecuteCommand(ctx context.Context, cmd Command) error

	// RouteEvent hands a domain event to the owning game runtime.
	RouteEvent(ctx context.Context, ev event.Event) error
}

// Adapter consumes the announcement channel, decodes wire messages, and
// dispatches them. Every delivery receives exactly one terminal ack or
// nack:
//
//   - decode failure (poison): ack-and-drop
//   - successful hand-off: ack
//   - transient hand-off failure: nack-with-requeue
//   - permanent hand-off failure (e.g. game removed): ack-and-drop
//
// Per-game event channels are pumped by the dispatch runtime itself, so a
// slow game never stalls the announcement loop or other games.
type Adapter struct {
	source     Source
	dispatcher Dispatcher

	wg   sync.WaitGroup
	sub  Subscription
	once sync.Once
}

// NewAdapter creates an ingestion adapter over the given source.
func NewAdapter(source Source, dispatcher Dispatcher) *Adapter {
	return &Adapter{source: source, dispatcher: dispatcher}
}

// Start opens the announcement subscription and begins consuming. It
// returns once the subscription is open; consumption runs until Stop.
func (a *Adapter) Start(ctx context.Context) error {
	sub, err := a.source.Announcements(ctx)
	if err != nil {
		return err
	}
	a.sub = sub

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for d := range sub.Deliveries() {
			a.handle(ctx, sub, d)
		}
	}()

	logrus.Info("stream ingestion adapter started")
	return nil
}

// Stop closes the announcement subscription and waits for the consume
// loop to finish. In-flight per-game work is owned by the supervisor.
func (a *Adapter) Stop() {
	a.once.Do(func() {
		if a.sub != nil {
			if err := a.sub.Close(); err != nil {
				logrus.Errorf("failed to close announcement subscription: %v", err)
			}
		}
		a.wg.Wait()
		logrus.Info("stream ingestion adapter stopped")
	})
}

func (a *Adapter) handle(ctx context.Context, sub Subscription, d Delivery) {
	env, err := Decode(d.Body)
	if err != nil {
		logrus.Warnf("dropping poison message %s: %v", d.Tag, err)
		metrics.PoisonMessages.Inc()
		a.ack(ctx, sub, d.Tag)
		return
	}

	switch env.Type {
	case TypeGameCommand:
		cmd, err := env.Command()
		if err != nil {
			logrus.Warnf("dropping malformed game command %s: %v", d.Tag, err)
			metrics.PoisonMessages.Inc()
			a.ack(ctx, sub, d.Tag)
			return
		}
		cmd.MessageID = d.Tag
		a.settle(ctx, sub, d.Tag, a.dispatcher.ExecuteCommand(ctx, cmd))

	case TypeEvent:
		ev, err := env.Event()
		if err != nil {
			logrus.Warnf("dropping malformed event %s: %v", d.Tag, err)
			metrics.PoisonMessages.Inc()
			a.ack(ctx, sub, d.Tag)
			return
		}
		a.settle(ctx, sub, d.Tag, a.dispatcher.RouteEvent(ctx, ev))
	}
}

// settle converts a hand-off result into the terminal acknowledgment.
func (a *Adapter) settle(ctx context.Context, sub Subscription, tag string, err error) {
	if err == nil {
		a.ack(ctx, sub, tag)
		return
	}

	if isTransient(err) {
		logrus.Warnf("transient hand-off failure for %s, requeueing: %v", tag, err)
		metrics.MessagesNacked.Inc()
		if nerr := sub.Nack(ctx, tag, true); nerr != nil {
			logrus.Errorf("failed to nack message %s: %v", tag, nerr)
		}
		return
	}

	logrus.Infof("dropping inapplicable message %s: %v", tag, err)
	a.ack(ctx, sub, tag)
}

func (a *Adapter) ack(ctx context.Context, sub Subscription, tag string) {
	metrics.MessagesAcked.Inc()
	if err := sub.Ack(ctx, tag); err != nil {
		logrus.Errorf("failed to ack message %s: %v", tag, err)
	}
}

func isTransient(err error) bool {
	var t interface{ Transient() bool }
	return errors.As(err, &t) && t.Transient()
}
