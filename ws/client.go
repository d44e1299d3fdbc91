package ws

import (
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/gorilla/websocket"

	"wordroom-server/room"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Read deadline. Pongs and inbound messages both extend it, so an
	// expired deadline means the connection went idle.
	inactivityWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than inactivityWait.
	pingPeriod = (inactivityWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Inbound messages tolerated per second before the connection is
	// treated as abusive and dropped.
	messagesPerSecond = 25
)

// Client is the middleman between one websocket connection and its room.
type Client struct {
	ID   string
	hub  *Hub
	conn *websocket.Conn
	room *room.Room
	send chan []byte
}

// CloseWithCode sends a close frame with an application close code and
// drops the connection. Safe to call from the room actor: gorilla allows
// WriteControl concurrently with the write pump.
func (c *Client) CloseWithCode(code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	if err := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
		slog.Debug("close frame write failed", "tag", "ws", "conn", c.ID, "err", err)
	}
	c.conn.Close()
}

// ReadPump pumps messages from the websocket connection into the room.
// It runs in its own goroutine per connection.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.room.Leave(c.ID)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(inactivityWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(inactivityWait))
		return nil
	})

	window := time.Now()
	count := 0
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if isTimeout(err) {
				c.CloseWithCode(room.CloseInactivity, "inactivity timeout")
			} else if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("read error", "tag", "ws", "conn", c.ID, "err", err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(inactivityWait))

		now := time.Now()
		if now.Sub(window) >= time.Second {
			window = now
			count = 0
		}
		count++
		if count > messagesPerSecond {
			slog.Info("connection flooding, dropping", "tag", "ws", "conn", c.ID)
			c.CloseWithCode(room.CloseBanned, "rate limited")
			return
		}

		c.room.HandleMessage(c.ID, message)
	}
}

// WritePump pumps messages from the send channel to the websocket
// connection. It runs in its own goroutine per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
