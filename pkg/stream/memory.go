package stream

import (
	"context"
	"fmt"
	"sync"
)

// MemorySource is an in-process Source for tests and embedded setups. It
// records every ack/nack so tests can assert the acknowledgment protocol.
type MemorySource struct {
	mu            sync.Mutex
	announcements *MemorySubscription
	games         map[int]*MemorySubscription
	closed        bool
}

// NewMemorySource creates an empty in-process source.
func NewMemorySource() *MemorySource {
	return &MemorySource{games: make(map[int]*MemorySubscription)}
}

func (s *MemorySource) Announcements(_ context.Context) (Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("source is closed")
	}
	if s.announcements == nil {
		s.announcements = newMemorySubscription("announcements")
	}
	return s.announcements, nil
}

func (s *MemorySource) GameEvents(_ context.Context, gameID int) (Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("source is closed")
	}
	sub, ok := s.games[gameID]
	if !ok || sub.isClosed() {
		sub = newMemorySubscription(fmt.Sprintf("game-%d", gameID))
		s.games[gameID] = sub
	}
	return sub, nil
}

func (s *MemorySource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.announcements != nil {
		s.announcements.Close()
	}
	for _, sub := range s.games {
		sub.Close()
	}
	return nil
}

// PublishAnnouncement injects a raw message into the announcement channel.
func (s *MemorySource) PublishAnnouncement(body []byte) string {
	s.mu.Lock()
	if s.announcements == nil {
		s.announcements = newMemorySubscription("announcements")
	}
	sub := s.announcements
	s.mu.Unlock()
	return sub.publish(body)
}

// PublishGameEvent injects a raw message into a game's event channel.
func (s *MemorySource) PublishGameEvent(gameID int, body []byte) (string, error) {
	s.mu.Lock()
	sub, ok := s.games[gameID]
	s.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("no open subscription for game %d", gameID)
	}
	return sub.publish(body), nil
}

// GameSubscription exposes a game's subscription for test assertions.
func (s *MemorySource) GameSubscription(gameID int) *MemorySubscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.games[gameID]
}

// AnnouncementSubscription exposes the announcement subscription.
func (s *MemorySource) AnnouncementSubscription() *MemorySubscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.announcements
}

// MemorySubscription buffers deliveries in a channel and records terminal
// acknowledgments by tag.
type MemorySubscription struct {
	name string

	mu     sync.Mutex
	seq    int
	ch     chan Delivery
	closed bool
	acked  map[string]bool
	nacked map[string]bool // tag -> requeue flag
}

func newMemorySubscription(name string) *MemorySubscription {
	return &MemorySubscription{
		name:   name,
		ch:     make(chan Delivery, 128),
		acked:  make(map[string]bool),
		nacked: make(map[string]bool),
	}
}

func (s *MemorySubscription) publish(body []byte) string {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ""
	}
	s.seq++
	tag := fmt.Sprintf("%s-%d", s.name, s.seq)
	s.mu.Unlock()

	s.ch <- Delivery{Body: body, Tag: tag}
	return tag
}

func (s *MemorySubscription) Deliveries() <-chan Delivery { return s.ch }

func (s *MemorySubscription) Ack(_ context.Context, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acked[tag] = true
	return nil
}

func (s *MemorySubscription) Nack(_ context.Context, tag string, requeue bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nacked[tag] = requeue
	return nil
}

func (s *MemorySubscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	return nil
}

func (s *MemorySubscription) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Acked reports whether the tag received a terminal ack.
func (s *MemorySubscription) Acked(tag string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acked[tag]
}

// Nacked reports whether the tag was nacked and whether requeue was set.
func (s *MemorySubscription) Nacked(tag string) (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	requeue, ok := s.nacked[tag]
	return ok, requeue
}
