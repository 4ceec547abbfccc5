package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/AccelByte/extend-gamification-engine/pkg/award"
	"github.com/AccelByte/extend-gamification-engine/pkg/event"
	"github.com/AccelByte/extend-gamification-engine/pkg/metrics"
	"github.com/AccelByte/extend-gamification-engine/pkg/rule"
	"github.com/AccelByte/extend-gamification-engine/pkg/stream"
	"github.com/sirupsen/logrus"
)

// Status is a game's lifecycle state.
type Status string

const (
	StatusStopped  Status = "STOPPED"
	StatusStarting Status = "STARTING"
	StatusRunning  Status = "RUNNING"
	StatusStopping Status = "STOPPING"
)

type gameEntry struct {
	status Status
	rt     *gameRuntime
}

type controlRequest struct {
	cmd  stream.Command
	resp chan error
}

// Supervisor owns the game-id to runtime mapping. All lifecycle mutations
// run on a single serialized control goroutine, so a START that arrives
// while a prior REMOVE is still tearing down naturally waits for the
// teardown to finish; two live runtimes for one game id cannot exist.
// Event routing only reads the map and runs concurrently.
type Supervisor struct {
	source   stream.Source
	provider rule.Provider
	store    rule.StateStore
	sink     award.Sink

	mu    sync.RWMutex
	games map[int]*gameEntry

	ctrl chan controlRequest
	quit chan struct{}
	done chan struct{}

	stopOnce sync.Once
}

// NewSupervisor creates a supervisor. Call Start to begin processing
// lifecycle commands.
func NewSupervisor(source stream.Source, provider rule.Provider, store rule.StateStore, sink award.Sink) *Supervisor {
	return &Supervisor{
		source:   source,
		provider: provider,
		store:    store,
		sink:     sink,
		games:    make(map[int]*gameEntry),
		ctrl:     make(chan controlRequest),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the control loop.
func (s *Supervisor) Start() {
	go s.controlLoop()
	logrus.Info("dispatch supervisor started")
}

func (s *Supervisor) controlLoop() {
	defer close(s.done)
	for {
		select {
		case req := <-s.ctrl:
			req.resp <- s.apply(req.cmd)
		case <-s.quit:
			return
		}
	}
}

// ExecuteCommand applies a lifecycle command on the serialized control
// path. Commands for one game are processed in delivery order.
func (s *Supervisor) ExecuteCommand(ctx context.Context, cmd stream.Command) error {
	req := controlRequest{cmd: cmd, resp: make(chan error, 1)}
	select {
	case s.ctrl <- req:
	case <-s.quit:
		return fmt.Errorf("supervisor is shut down")
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.resp:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Supervisor) apply(cmd stream.Command) error {
	switch cmd.Status {
	case stream.LifecycleStart:
		return s.startGame(cmd.GameID)
	case stream.LifecycleRemove:
		return s.removeGame(cmd.GameID)
	}
	return fmt.Errorf("unknown lifecycle status %q", cmd.Status)
}

func (s *Supervisor) startGame(gameID int) error {
	s.mu.RLock()
	entry := s.games[gameID]
	s.mu.RUnlock()

	if entry != nil {
		switch entry.status {
		case StatusRunning:
			logrus.Infof("game %d already running, START is a no-op", gameID)
			return nil
		case StatusStarting, StatusStopping:
			return &LifecycleConflictError{GameID: gameID, Status: entry.status}
		}
	}

	logrus.Infof("starting game %d", gameID)
	s.setEntry(gameID, &gameEntry{status: StatusStarting})

	ctx := context.Background()
	defs, err := s.provider.GameRules(ctx, gameID)
	if err != nil {
		s.clearEntry(gameID)
		return &StartupError{GameID: gameID, Err: fmt.Errorf("failed to load rule definitions: %w", err)}
	}

	rules, compileErrs := rule.CompileAll(defs)
	for _, cerr := range compileErrs {
		// Definition errors are fatal to that one rule only.
		logrus.Warnf("game %d: %v", gameID, cerr)
	}

	sub, err := s.source.GameEvents(ctx, gameID)
	if err != nil {
		s.clearEntry(gameID)
		return &StartupError{GameID: gameID, Err: fmt.Errorf("failed to open event channel: %w", err)}
	}

	engine := rule.NewEngine(gameID, rules, s.store, s.sink)
	rt := newGameRuntime(gameID, engine, sub)
	rt.start()

	s.setEntry(gameID, &gameEntry{status: StatusRunning, rt: rt})
	metrics.ActiveGames.Inc()
	logrus.Infof("game %d running with %d rules", gameID, len(rules))
	return nil
}

// removeGame closes the event subscription first, lets in-flight
// evaluations finish, then releases the runtime. Idempotent: REMOVE on an
// unknown or stopped game is a no-op.
func (s *Supervisor) removeGame(gameID int) error {
	s.mu.RLock()
	entry := s.games[gameID]
	s.mu.RUnlock()

	if entry == nil || entry.status == StatusStopped {
		logrus.Infof("game %d not running, REMOVE is a no-op", gameID)
		return nil
	}
	if entry.status != StatusRunning {
		return &LifecycleConflictError{GameID: gameID, Status: entry.status}
	}

	logrus.Infof("removing game %d", gameID)
	s.mu.Lock()
	entry.status = StatusStopping
	s.mu.Unlock()
	entry.rt.stop()
	s.clearEntry(gameID)
	metrics.ActiveGames.Dec()
	logrus.Infof("game %d removed", gameID)
	return nil
}

// RouteEvent hands an event to its game's runtime. Events for games not
// in RUNNING state are rejected with ErrGameNotRunning.
func (s *Supervisor) RouteEvent(_ context.Context, ev event.Event) error {
	s.mu.RLock()
	entry := s.games[ev.GameID]
	var rt *gameRuntime
	if entry != nil && entry.status == StatusRunning {
		rt = entry.rt
	}
	s.mu.RUnlock()

	if rt == nil {
		return ErrGameNotRunning
	}
	return rt.route(ev)
}

// GameStatus reports a game's lifecycle state.
func (s *Supervisor) GameStatus(gameID int) Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if entry := s.games[gameID]; entry != nil {
		return entry.status
	}
	return StatusStopped
}

// Shutdown stops the control loop and tears down every running game,
// draining in-flight evaluations.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() {
		close(s.quit)
		<-s.done

		s.mu.Lock()
		games := s.games
		s.games = make(map[int]*gameEntry)
		s.mu.Unlock()

		for gameID, entry := range games {
			if entry.rt != nil {
				logrus.Infof("shutting down game %d", gameID)
				entry.rt.stop()
				metrics.ActiveGames.Dec()
			}
		}
	})
	return nil
}

func (s *Supervisor) setEntry(gameID int, entry *gameEntry) {
	s.mu.Lock()
	s.games[gameID] = entry
	s.mu.Unlock()
}

func (s *Supervisor) clearEntry(gameID int) {
	s.mu.Lock()
	delete(s.games, gameID)
	s.mu.Unlock()
}
