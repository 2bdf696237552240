package remote

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
	sendBuffer     = 256
)

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithHubLogger sets the hub logger.
func WithHubLogger(logger *slog.Logger) HubOption {
	return func(h *Hub) {
		h.logger = logger
	}
}

// WithCheckOrigin replaces the origin check of the websocket upgrade.
func WithCheckOrigin(fn func(r *http.Request) bool) HubOption {
	return func(h *Hub) {
		h.upgrader.CheckOrigin = fn
	}
}

type peer struct {
	id        string
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

func (p *peer) close() {
	p.closeOnce.Do(func() { close(p.send) })
}

// Hub is an http.Handler accepting websocket peers. Every message received
// from a peer is forwarded unchanged to all other peers.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu     sync.RWMutex
	peers  map[string]*peer
	closed bool
}

func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096},
		peers:    map[string]*peer{},
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	h.logger = h.logger.With("logger", "remote.hub")
	return h
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	p := &peer{id: uuid.NewString(), conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.peers[p.id] = p
	count := len(h.peers)
	h.mu.Unlock()
	h.logger.Info("peer connected", "peer", p.id, "remote", r.RemoteAddr, "peers", count)

	go h.writePump(p)
	go h.readPump(p)
}

// Peers returns the number of connected peers.
func (h *Hub) Peers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// Close disconnects all peers and rejects new ones.
func (h *Hub) Close() error {
	h.mu.Lock()
	h.closed = true
	peers := h.peers
	h.peers = map[string]*peer{}
	h.mu.Unlock()
	for _, p := range peers {
		p.close()
	}
	return nil
}

func (h *Hub) remove(p *peer) {
	h.mu.Lock()
	_, ok := h.peers[p.id]
	delete(h.peers, p.id)
	count := len(h.peers)
	h.mu.Unlock()
	p.close()
	if ok {
		h.logger.Info("peer disconnected", "peer", p.id, "peers", count)
	}
}

func (h *Hub) broadcast(from string, msg []byte) {
	var slow []*peer
	h.mu.RLock()
	for id, p := range h.peers {
		if id == from {
			continue
		}
		select {
		case p.send <- msg:
		default:
			slow = append(slow, p)
		}
	}
	h.mu.RUnlock()
	for _, p := range slow {
		h.logger.Warn("dropping slow peer", "peer", p.id)
		h.remove(p)
	}
}

func (h *Hub) readPump(p *peer) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("panic in hub read pump", "peer", p.id, "panic", r, "stack", string(debug.Stack()))
		}
		h.remove(p)
		_ = p.conn.Close()
	}()

	p.conn.SetReadLimit(maxMessageSize)
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("peer closed unexpectedly", "peer", p.id, "error", err)
			}
			return
		}
		// any traffic proves the peer alive
		_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
		h.broadcast(p.id, msg)
	}
}

func (h *Hub) writePump(p *peer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = p.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = p.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := p.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.logger.Warn("failed to write to peer", "peer", p.id, "error", err)
				h.remove(p)
				return
			}
		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(p)
				return
			}
		}
	}
}
