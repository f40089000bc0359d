package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Client is a websocket connection bound to one identity at handshake time.
type Client struct {
	id         string
	identityID string
	conn       *websocket.Conn
	send       chan []byte
	done       chan struct{}
	closeOnce  sync.Once
	logger     *zap.Logger
}

func newClient(conn *websocket.Conn, identityID string, sendBuffer int, logger *zap.Logger) *Client {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	return &Client{
		id:         uuid.NewString(),
		identityID: identityID,
		conn:       conn,
		send:       make(chan []byte, sendBuffer),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// ID returns the connection identifier.
func (c *Client) ID() string { return c.id }

// IdentityID returns the identity bound at handshake.
func (c *Client) IdentityID() string { return c.identityID }

// Send queues a frame without blocking. It returns false when the buffer is full
// or the client is closed.
func (c *Client) Send(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// readPump feeds inbound frames to the router until the socket fails, then
// unregisters the client.
func (c *Client) readPump(router *Router, maxMessageSize int64) {
	defer func() {
		router.Disconnect(c.id)
		c.close()
		_ = c.conn.Close()
	}()

	if maxMessageSize > 0 {
		c.conn.SetReadLimit(maxMessageSize)
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.logger.Debug("realtime read failed", zap.String("conn_id", c.id), zap.Error(err))
			}
			return
		}
		router.Dispatch(c, message)
	}
}

// writePump is the only writer on the socket.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}
