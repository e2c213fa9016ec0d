package websocket

import (
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	readLimit    = 512
	sendCapacity = 64
)

// connection is one open socket of a user. A user may hold several (one per device).
type connection struct {
	hub    *Hub
	conn   *websocket.Conn
	userID uuid.UUID
	send   chan []byte
}

func newConnection(h *Hub, conn *websocket.Conn, userID uuid.UUID, capacity int) *connection {
	return &connection{hub: h, conn: conn, userID: userID, send: make(chan []byte, capacity)}
}

// Attach registers conn for userID and blocks until the socket closes.
func (h *Hub) Attach(conn *websocket.Conn, userID uuid.UUID) {
	c := newConnection(h, conn, userID, sendCapacity)
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writeLoop()
	c.readLoop()
}

// readLoop discards inbound frames; it exists to process pongs and notice disconnects.
func (c *connection) readLoop() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(readLimit)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn(hubModule, "Unexpected websocket close", map[string]interface{}{
					"user_id": c.userID,
					"error":   err,
				})
			}
			return
		}
	}
}

// writeLoop sends each notification as its own text frame so clients can parse frames independently.
func (c *connection) writeLoop() {
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
				c.hub.logger.Debug(hubModule, "Websocket write failed", map[string]interface{}{
					"user_id": c.userID,
					"error":   err,
				})
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
