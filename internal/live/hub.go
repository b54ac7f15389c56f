// Package live pushes calendar state to browsers over WebSocket.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/bcnelson/household-calendar/internal/domain"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"go.uber.org/zap"
)

const (
	writeTimeout      = 10 * time.Second
	defaultSendBuffer = 16
)

var errHubClosed = errors.New("hub is closed")

// StateSource provides the snapshot sent to a client when it connects.
type StateSource interface {
	State(ctx context.Context) (*domain.State, error)
}

// Hub fans sync messages out to connected WebSocket clients. It implements
// service.Broadcaster. A client whose send buffer is full is disconnected;
// it receives a fresh snapshot when it reconnects.
type Hub struct {
	source     StateSource
	logger     *zap.Logger
	sendBuffer int

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	// version counts Notify calls; last is the payload of the latest one.
	version uint64
	last    []byte
}

type client struct {
	conn net.Conn
	send chan []byte
}

// NewHub creates a new Hub. sendBuffer <= 0 uses a default of 16 messages.
func NewHub(source StateSource, logger *zap.Logger, sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = defaultSendBuffer
	}
	return &Hub{
		source:     source,
		logger:     logger,
		sendBuffer: sendBuffer,
		clients:    make(map[*client]struct{}),
	}
}

// Notify queues a sync message for every client without blocking.
func (h *Hub) Notify(state *domain.State) {
	payload, err := encode(state)
	if err != nil {
		h.logger.Error("encoding sync message", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.version++
	h.last = payload
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.logger.Warn("dropping slow client", zap.String("remote", c.conn.RemoteAddr().String()))
			h.removeLocked(c)
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request to a WebSocket, sends the current state and
// keeps the connection registered until the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, h.sendBuffer)}
	if err := h.register(r.Context(), c); err != nil {
		h.logger.Error("registering websocket client", zap.Error(err))
		conn.Close()
		return
	}
	h.logger.Info("websocket client connected", zap.String("remote", conn.RemoteAddr().String()))

	go h.writeLoop(c)

	// Clients never send data; reading only serves control frames and
	// detects disconnects.
	for {
		if _, _, err := wsutil.ReadClientData(conn); err != nil {
			break
		}
	}

	h.mu.Lock()
	h.removeLocked(c)
	h.mu.Unlock()
	h.logger.Info("websocket client disconnected", zap.String("remote", conn.RemoteAddr().String()))
}

// register adds c and queues its initial snapshot. The state is read without
// holding the hub lock so a slow read never delays Notify. If a broadcast
// arrived during the read, that newer payload is queued instead, so no
// broadcast is ever queued ahead of an older snapshot.
func (h *Hub) register(ctx context.Context, c *client) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return errHubClosed
	}
	seen := h.version
	h.mu.Unlock()

	state, err := h.source.State(ctx)
	if err != nil {
		return err
	}
	payload, err := encode(state)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errHubClosed
	}
	if h.version != seen {
		payload = h.last
	}
	c.send <- payload
	h.clients[c] = struct{}{}
	return nil
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for payload := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := wsutil.WriteServerText(c.conn, payload); err != nil {
			h.logger.Debug("websocket write failed", zap.Error(err))
			return
		}
	}
	// Send buffer closed: the client was removed.
	wsutil.WriteServerMessage(c.conn, ws.OpClose, ws.NewCloseFrameBody(ws.StatusNormalClosure, ""))
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
}

func encode(state *domain.State) ([]byte, error) {
	return json.Marshal(domain.NewSyncMessage(state))
}
