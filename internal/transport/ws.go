package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/liamharte04/EEECS-PingPong/internal/config"
	"github.com/liamharte04/EEECS-PingPong/internal/netplay"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
	readLimit  = 1 << 20
)

// WSOptions tunes a WebSocket transport.
type WSOptions struct {
	// QueueSize bounds the inbound and outbound buffers. Below 1
	// selects DefaultQueueSize.
	QueueSize int

	// InboundPerSecond and InboundBurst guard against a peer flooding
	// the link; messages over the budget are dropped before they reach
	// the session. Zero disables the guard.
	InboundPerSecond float64
	InboundBurst     int

	// Logger receives link lifecycle and drop diagnostics.
	Logger *log.Logger
}

// OptionsFromNet builds WebSocket options from the session's net
// tunables.
func OptionsFromNet(net config.NetConfig, logger *log.Logger) WSOptions {
	return WSOptions{
		InboundPerSecond: net.InboundPerSecond,
		InboundBurst:     net.InboundBurst,
		Logger:           logger,
	}
}

func (o WSOptions) withDefaults() WSOptions {
	if o.QueueSize < 1 {
		o.QueueSize = DefaultQueueSize
	}
	if o.InboundPerSecond > 0 && o.InboundBurst < 1 {
		o.InboundBurst = int(o.InboundPerSecond)
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	return o
}

// WS adapts one WebSocket connection to the session Transport. Reads
// and writes run on their own pumps; the session goroutine only ever
// touches channels.
type WS struct {
	conn    *websocket.Conn
	logger  *log.Logger
	limiter *rate.Limiter

	inbox  chan netplay.Message
	outbox chan netplay.Message

	done     chan struct{}
	stopOnce sync.Once
}

// NewWS wraps an established WebSocket connection. The transport takes
// over the connection; the caller must not use conn afterwards.
func NewWS(conn *websocket.Conn, opts WSOptions) *WS {
	opts = opts.withDefaults()
	t := &WS{
		conn:   conn,
		logger: opts.Logger,
		inbox:  make(chan netplay.Message, opts.QueueSize),
		outbox: make(chan netplay.Message, opts.QueueSize),
		done:   make(chan struct{}),
	}
	if opts.InboundPerSecond > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(opts.InboundPerSecond), opts.InboundBurst)
	}
	go t.readPump()
	go t.writePump()
	return t
}

// Send queues msg for the remote peer without blocking.
func (t *WS) Send(msg netplay.Message) error {
	select {
	case <-t.done:
		return ErrLinkClosed
	default:
	}
	select {
	case t.outbox <- msg:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Inbox returns the stream of messages from the remote peer.
func (t *WS) Inbox() <-chan netplay.Message {
	return t.inbox
}

// Done returns a channel that closes when the link is lost or closed.
func (t *WS) Done() <-chan struct{} {
	return t.done
}

// Close tears the link down. Safe to call more than once.
func (t *WS) Close() error {
	t.shutdown()
	return nil
}

// shutdown closes the done signal and the connection. Closing the
// connection is what breaks a pump blocked in a read or write.
func (t *WS) shutdown() {
	t.stopOnce.Do(func() {
		close(t.done)
		_ = t.conn.Close()
	})
}

func (t *WS) readPump() {
	defer t.shutdown()
	t.conn.SetReadLimit(readLimit)
	_ = t.conn.SetReadDeadline(time.Now().Add(pongWait))
	t.conn.SetPongHandler(func(string) error {
		return t.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		var msg netplay.Message
		if err := t.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				t.logger.Debug("link read failed", "err", err)
			}
			return
		}
		if t.limiter != nil && !t.limiter.Allow() {
			t.logger.Warn("inbound rate exceeded, dropping message", "type", msg.Type)
			continue
		}
		select {
		case t.inbox <- msg:
		case <-t.done:
			return
		}
	}
}

func (t *WS) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg := <-t.outbox:
			_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := t.conn.WriteJSON(msg); err != nil {
				t.logger.Debug("link write failed", "err", err)
				t.shutdown()
				return
			}
		case <-ticker.C:
			_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := t.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				t.shutdown()
				return
			}
		case <-t.done:
			return
		}
	}
}

// upgrader accepts any origin. The join code is the gate; direct links
// are meant for LAN and tunneled play.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Upgrade converts an incoming HTTP request into a WebSocket transport.
func Upgrade(w http.ResponseWriter, r *http.Request, opts WSOptions) (*WS, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade connection: %w", err)
	}
	return NewWS(conn, opts), nil
}

// Dial connects to a hosting peer's WebSocket endpoint.
func Dial(ctx context.Context, url string, opts WSOptions) (*WS, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}
	return NewWS(conn, opts), nil
}
