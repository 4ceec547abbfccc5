package stream

import (
	"encoding/json"
	"fmt"

	"github.com/AccelByte/extend-gamification-engine/pkg/event"
)

// MessageType tags an inbound envelope.
type MessageType string

const (
	TypeEvent       MessageType = "EVENT"
	TypeGameCommand MessageType = "GAME_COMMAND"
)

// Lifecycle is a game lifecycle command status.
type Lifecycle string

const (
	LifecycleStart  Lifecycle = "START"
	LifecycleRemove Lifecycle = "REMOVE"
)

// Envelope is the wire shape of every inbound broker message. Payload is
// the open attribute bag for events.
type Envelope struct {
	ID        string                 `json:"id"`
	Timestamp int64                  `json:"ts"`
	Type      MessageType            `json:"type"`
	GameID    int                    `json:"gameId"`
	UserID    int64                  `json:"userId,omitempty"`
	EventType string                 `json:"eventType,omitempty"`
	Status    string                 `json:"status,omitempty"`
	Source    string                 `json:"source,omitempty"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

// Command is a decoded game lifecycle command.
type Command struct {
	GameID    int
	Status    Lifecycle
	MessageID string
}

// DecodeError marks a structurally invalid message: poison, acked and
// dropped so the broker never redelivers it forever.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed wire message: %s", e.Reason)
}

// Decode parses a raw message body into an envelope.
func Decode(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &DecodeError{Reason: err.Error()}
	}
	if env.Type != TypeEvent && env.Type != TypeGameCommand {
		return nil, &DecodeError{Reason: fmt.Sprintf("unknown message type %q", env.Type)}
	}
	if env.GameID == 0 {
		return nil, &DecodeError{Reason: "missing gameId"}
	}
	return &env, nil
}

// Command converts a GAME_COMMAND envelope.
func (e *Envelope) Command() (Command, error) {
	if e.Type != TypeGameCommand {
		return Command{}, &DecodeError{Reason: fmt.Sprintf("message type %q is not a game command", e.Type)}
	}
	status := Lifecycle(e.Status)
	if status != LifecycleStart && status != LifecycleRemove {
		return Command{}, &DecodeError{Reason: fmt.Sprintf("unknown lifecycle status %q", e.Status)}
	}
	return Command{GameID: e.GameID, Status: status, MessageID: e.ID}, nil
}

// Event converts an EVENT envelope into a domain event.
func (e *Envelope) Event() (event.Event, error) {
	if e.Type != TypeEvent {
		return event.Event{}, &DecodeError{Reason: fmt.Sprintf("message type %q is not an event", e.Type)}
	}
	if e.EventType == "" {
		return event.Event{}, &DecodeError{Reason: "missing eventType"}
	}
	if e.UserID == 0 {
		return event.Event{}, &DecodeError{Reason: "missing userId"}
	}
	return event.Event{
		ID:         e.ID,
		GameID:     e.GameID,
		UserID:     e.UserID,
		Type:       e.EventType,
		Timestamp:  e.Timestamp,
		Source:     e.Source,
		Attributes: e.Payload,
	}, nil
}
