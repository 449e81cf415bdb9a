// Package transport provides the links that carry session envelopes
// between peers: an in-process loopback pair for coordinator-hosted
// matches and a WebSocket link for direct connections.
package transport

import (
	"errors"
	"sync"

	"github.com/liamharte04/EEECS-PingPong/internal/netplay"
)

var (
	// ErrLinkClosed is returned by Send after the link went down.
	ErrLinkClosed = errors.New("transport: link closed")

	// ErrSendQueueFull is returned when the outbound buffer is
	// exhausted, which means the other side stopped draining.
	ErrSendQueueFull = errors.New("transport: send queue full")
)

// DefaultQueueSize bounds per-direction buffering. At thirty ticks per
// second it holds several seconds of traffic.
const DefaultQueueSize = 256

// Loopback is an in-process Transport. A pair shares two buffered
// channels and one done signal, so closing either end severs both.
type Loopback struct {
	out  chan<- netplay.Message
	in   <-chan netplay.Message
	done chan struct{}
	stop func()
}

// NewLoopbackPair returns two linked loopback transports. Messages sent
// on one end arrive on the other in send order. queueSize below 1
// selects DefaultQueueSize.
func NewLoopbackPair(queueSize int) (*Loopback, *Loopback) {
	if queueSize < 1 {
		queueSize = DefaultQueueSize
	}
	ab := make(chan netplay.Message, queueSize)
	ba := make(chan netplay.Message, queueSize)
	done := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() { close(done) })
	}
	a := &Loopback{out: ab, in: ba, done: done, stop: stop}
	b := &Loopback{out: ba, in: ab, done: done, stop: stop}
	return a, b
}

// Send queues msg for the other end without blocking.
func (l *Loopback) Send(msg netplay.Message) error {
	select {
	case <-l.done:
		return ErrLinkClosed
	default:
	}
	select {
	case l.out <- msg:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Inbox returns the stream of messages from the other end.
func (l *Loopback) Inbox() <-chan netplay.Message {
	return l.in
}

// Done returns a channel that closes when either end closes the pair.
func (l *Loopback) Done() <-chan struct{} {
	return l.done
}

// Close severs the link for both ends.
func (l *Loopback) Close() error {
	l.stop()
	return nil
}
