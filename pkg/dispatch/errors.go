package dispatch

import (
	"errors"
	"fmt"
)

// ErrGameNotRunning rejects events and commands for games with no live
// runtime. It is permanent from the broker's point of view: the message
// is acked and dropped, not requeued.
var ErrGameNotRunning = errors.New("game is not running")

// LifecycleConflictError rejects a lifecycle command that raced an
// in-progress transition for the same game. Transient: the command is
// nack'd and redelivered once the transition settles.
type LifecycleConflictError struct {
	GameID int
	Status Status
}

func (e *LifecycleConflictError) Error() string {
	return fmt.Sprintf("game %d is %s, command rejected", e.GameID, e.Status)
}

func (e *LifecycleConflictError) Transient() bool { return true }

// StartupError reports a failed game START. The runtime is fully torn
// down before this is returned; nothing half-initialized stays reachable.
// Transient: broker conditions that blocked startup may clear.
type StartupError struct {
	GameID int
	Err    error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("failed to start game %d: %v", e.GameID, e.Err)
}

func (e *StartupError) Unwrap() error { return e.Err }

func (e *StartupError) Transient() bool { return true }
