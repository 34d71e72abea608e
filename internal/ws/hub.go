package ws

import (
	"context"
	"net/http"
	"sync"

	"job-tracker/internal/auth"
	"job-tracker/internal/metrics"
	"job-tracker/internal/pkg/logger"
	"job-tracker/internal/usecase/projection"

	"github.com/gorilla/websocket"
)

// Watcher opens a user's live job list. release stops delivery to fn.
type Watcher interface {
	Watch(ctx context.Context, sess auth.Session, fn projection.Listener) (release func(), err error)
}

// Hub connects websocket clients to their user's live projection. Every
// client gets the current list on connect and again after each change.
type Hub struct {
	watcher  Watcher
	log      logger.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	closed  bool
	clients map[*Client]func()
}

func NewHub(watcher Watcher, log logger.Logger) *Hub {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Hub{
		watcher: watcher,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: map[*Client]func(){},
	}
}

// ServeWS upgrades the request and streams sess's snapshots until the
// connection drops.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", map[string]interface{}{"user_id": sess.UserID, "error": err})
		return
	}

	client := newClient(h, conn, sess)
	if err := h.register(r.Context(), client); err != nil {
		h.log.Error("ws watch failed", map[string]interface{}{"user_id": sess.UserID, "error": err})
		client.closeWith(websocket.CloseInternalServerErr, "subscription failed")
		return
	}

	go client.writePump()
	go client.readPump()
}

func (h *Hub) register(ctx context.Context, c *Client) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return errHubClosed
	}
	h.clients[c] = func() {}
	h.mu.Unlock()

	release, err := h.watcher.Watch(context.WithoutCancel(ctx), c.sess, c.pushSnapshot)
	if err != nil {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		return err
	}

	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		release()
		return nil
	}
	h.clients[c] = release
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSClients.Inc()
	h.log.Info("ws connected", map[string]interface{}{"user_id": c.sess.UserID, "total_clients": total})
	return nil
}

// unregister is safe to call more than once per client.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	release, ok := h.clients[c]
	delete(h.clients, c)
	total := len(h.clients)
	h.mu.Unlock()
	if !ok {
		return
	}

	release()
	c.closeSend()
	metrics.WSClients.Dec()
	h.log.Info("ws disconnected", map[string]interface{}{"user_id": c.sess.UserID, "total_clients": total})
}

func (h *Hub) ClientCount() int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.unregister(c)
	}
}
