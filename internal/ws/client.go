package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"job-tracker/internal/auth"
	"job-tracker/internal/delivery/http/dto"
	"job-tracker/internal/domain/job"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

var errHubClosed = errors.New("hub closed")

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	sess auth.Session

	mu       sync.Mutex
	send     chan []byte
	sendDone bool
}

func newClient(h *Hub, conn *websocket.Conn, sess auth.Session) *Client {
	return &Client{hub: h, conn: conn, sess: sess, send: make(chan []byte, sendBuffer)}
}

// pushSnapshot queues the list for this client. A client that cannot keep
// up is disconnected; on reconnect it receives the full current list.
func (c *Client) pushSnapshot(apps []job.Application) {
	msg, err := json.Marshal(dto.NewSnapshotMessage(apps))
	if err != nil {
		c.hub.log.Error("ws encode snapshot failed", map[string]interface{}{"user_id": c.sess.UserID, "error": err})
		return
	}

	c.mu.Lock()
	if c.sendDone {
		c.mu.Unlock()
		return
	}
	select {
	case c.send <- msg:
		c.mu.Unlock()
	default:
		c.mu.Unlock()
		c.hub.log.Warn("ws client too slow, dropping", map[string]interface{}{"user_id": c.sess.UserID})
		go c.hub.unregister(c)
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.sendDone {
		c.sendDone = true
		close(c.send)
	}
}

func (c *Client) closeWith(code int, text string) {
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(writeWait))
	_ = c.conn.Close()
}

// readPump discards client messages and keeps the pong deadline fresh.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
