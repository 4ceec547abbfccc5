package stream

import "context"

// Delivery is one raw inbound message plus the opaque tag needed to
// acknowledge exactly that message back to the broker.
type Delivery struct {
	Body []byte
	Tag  string
}

// Subscription is an open consumer on one broker channel. Every delivery
// must receive exactly one terminal Ack or Nack. Deliveries is closed when
// the subscription is closed.
type Subscription interface {
	Deliveries() <-chan Delivery

	// Ack confirms terminal processing of the message.
	Ack(ctx context.Context, tag string) error

	// Nack rejects the message. With requeue the broker redelivers it
	// later (at-least-once); without, the message is discarded.
	Nack(ctx context.Context, tag string, requeue bool) error

	Close() error
}

// Source provides the two channel families the engine consumes: one
// announcement channel carrying game lifecycle commands and one event
// channel per running game.
type Source interface {
	Announcements(ctx context.Context) (Subscription, error)
	GameEvents(ctx context.Context, gameID int) (Subscription, error)
	Close() error
}
