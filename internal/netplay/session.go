package netplay

import (
	"sync"
	"sync/atomic"
)

// SessionHandle is where a presentation session receives its events:
// per-tick snapshots, lobby updates, and match lifecycle notices. It is
// deliberately transport-neutral so peers and the coordinator never
// depend on Wish or Bubble Tea.
type SessionHandle interface {
	ID() SessionID

	// Send must not block. Snapshot delivery runs on the simulation
	// goroutine, so a stalled consumer can only cost itself events.
	Send(evt SessionEvent)

	// Done closes when the session is over.
	Done() <-chan struct{}
}

// ChannelSession delivers events over a bounded channel. The stream is
// lossy under pressure: when the buffer is full the oldest event is
// discarded, which suits snapshots since only the newest one matters.
type ChannelSession struct {
	id    SessionID
	queue chan SessionEvent
	drops atomic.Uint64

	quit      chan struct{}
	closeOnce sync.Once
}

// NewChannelSession creates a session handle buffering up to size
// events. A size below 1 falls back to 64, enough to ride out a couple
// seconds of snapshots at the default tick rate.
func NewChannelSession(id SessionID, size int) *ChannelSession {
	if size < 1 {
		size = 64
	}
	return &ChannelSession{
		id:    id,
		queue: make(chan SessionEvent, size),
		quit:  make(chan struct{}),
	}
}

func (s *ChannelSession) ID() SessionID {
	return s.id
}

// Send queues evt, evicting the oldest buffered event first when the
// queue is full. Events sent after Close are discarded.
func (s *ChannelSession) Send(evt SessionEvent) {
	select {
	case <-s.quit:
		return
	default:
	}

	select {
	case s.queue <- evt:
		return
	default:
	}

	// Full: evict the oldest buffered event and try once more. If
	// another producer wins the freed slot, the new event is the one
	// that goes missing.
	select {
	case <-s.queue:
		s.drops.Add(1)
	default:
	}
	select {
	case s.queue <- evt:
	default:
		s.drops.Add(1)
	}
}

// Events is the stream the presentation layer renders from.
func (s *ChannelSession) Events() <-chan SessionEvent {
	return s.queue
}

// Drops reports how many events were evicted to make room for newer
// ones. A persistently climbing count means the consumer cannot keep up
// with the tick rate.
func (s *ChannelSession) Drops() uint64 {
	return s.drops.Load()
}

func (s *ChannelSession) Done() <-chan struct{} {
	return s.quit
}

// Close ends the session. Safe to call more than once.
func (s *ChannelSession) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
	})
}

// SessionRegistry is the shared index of live presentation sessions,
// keyed by session ID. The coordinator resolves message senders through
// it; the SSH server registers a session per connection.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[SessionID]SessionHandle
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[SessionID]SessionHandle)}
}

// Register adds or replaces the session under its own ID.
func (r *SessionRegistry) Register(session SessionHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID()] = session
}

// Unregister removes the session with the given ID, if present.
func (r *SessionRegistry) Unregister(id SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Get looks a session up by ID.
func (r *SessionRegistry) Get(id SessionID) (SessionHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Count returns the number of live sessions.
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
