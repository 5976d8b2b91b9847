package realtime

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	// ErrClosed is returned when sending to a connection that has gone away.
	ErrClosed = errors.New("connection closed")
	// ErrSendBufferFull is returned when a slow client has not drained its queue.
	ErrSendBufferFull = errors.New("send buffer full")
)

const maxInboundMessage = 4096

// Conn is one live client connection as seen by the registry.
type Conn interface {
	Handle() string
	// Send queues payload without blocking.
	Send(payload []byte) error
}

// Options tune per-connection behaviour.
type Options struct {
	SendBuffer   int
	WriteTimeout time.Duration
	PongWait     time.Duration
}

func (o Options) withDefaults() Options {
	if o.SendBuffer <= 0 {
		o.SendBuffer = 16
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	return o
}

type wsConn struct {
	handle    string
	ws        *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	opts      Options
}

// newConn returns a connection that queues sends until attach gives it a socket.
func newConn(opts Options) *wsConn {
	opts = opts.withDefaults()
	return &wsConn{
		handle: uuid.NewString(),
		send:   make(chan []byte, opts.SendBuffer),
		done:   make(chan struct{}),
		opts:   opts,
	}
}

// attach must be called before writePump or readPump.
func (c *wsConn) attach(ws *websocket.Conn) { c.ws = ws }

func (c *wsConn) Handle() string { return c.handle }

func (c *wsConn) Send(payload []byte) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.send <- payload:
		return nil
	case <-c.done:
		return ErrClosed
	default:
		return ErrSendBufferFull
	}
}

func (c *wsConn) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// writePump owns all writes to the socket until the connection closes.
func (c *wsConn) writePump() {
	ping := time.NewTicker(c.opts.PongWait * 9 / 10)
	defer func() {
		ping.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("write to connection %s failed: %v", c.handle, err)
				c.close()
				return
			}
		case <-ping.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.opts.WriteTimeout)); err != nil {
				c.close()
				return
			}
		case <-c.done:
			c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.opts.WriteTimeout))
			return
		}
	}
}

// readPump blocks until the peer disconnects or stops answering pings.
// Inbound messages are ignored.
func (c *wsConn) readPump() {
	defer c.close()

	c.ws.SetReadLimit(maxInboundMessage)
	c.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Printf("connection %s closed unexpectedly: %v", c.handle, err)
			}
			return
		}
	}
}
