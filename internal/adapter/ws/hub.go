// Package ws implements the WebSocket adapter pushing authorization
// events (module toggles, membership changes) to connected clients.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"

	"github.com/predialis/predialis/internal/domain/authz"
	"github.com/predialis/predialis/internal/session"
)

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// conn wraps a single WebSocket connection, pinned to the tenant it was
// opened under. A tenant switch on the client means a new connection.
type conn struct {
	ws       *websocket.Conn
	tenantID string
	cancel   context.CancelFunc
}

// Hub manages active connections and broadcasts per-tenant events.
// Connections authenticate with a single-use ticket minted over the
// regular guarded API; the ticket store is owned here, not by the
// authorization core.
type Hub struct {
	mu      sync.RWMutex
	conns   map[*conn]struct{}
	tickets *session.Store
}

// NewHub creates a hub using the given ticket store.
func NewHub(tickets *session.Store) *Hub {
	return &Hub{
		conns:   make(map[*conn]struct{}),
		tickets: tickets,
	}
}

// IssueTicket stores the bound authorization context under an opaque
// ticket for a later WebSocket upgrade.
func (h *Hub) IssueTicket(ticket string, ac authz.Context) {
	h.tickets.Put(ticket, ac)
}

// HandleWS upgrades a ticketed request to a WebSocket connection. The
// connection inherits the tenant the ticket was minted under.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	v, ok := h.tickets.Take(r.URL.Query().Get("ticket"))
	if !ok {
		http.Error(w, `{"error":"invalid or expired ticket"}`, http.StatusUnauthorized)
		return
	}
	ac, ok := v.(authz.Context)
	if !ok || !ac.TenantBound() {
		http.Error(w, `{"error":"ticket has no tenant bound"}`, http.StatusBadRequest)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // CORS handled by middleware
	})
	if err != nil {
		slog.Error("websocket accept failed", "error", err)
		return
	}

	// Not r.Context(): net/http cancels the request context as soon as
	// this handler returns, and the connection has to outlive the upgrade
	// request. The conn's own cancel tears the loop down on removal.
	ctx, cancel := context.WithCancel(context.Background())
	c := &conn{ws: ws, tenantID: ac.TenantID, cancel: cancel}

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	slog.Info("websocket connected", "tenant", ac.TenantID, "user", ac.UserID)

	// Read loop (to detect disconnects and consume pings)
	go func() {
		defer func() {
			h.remove(c)
			_ = ws.Close(websocket.StatusNormalClosure, "")
		}()
		for {
			if _, _, err := ws.Read(ctx); err != nil {
				return
			}
		}
	}()
}

// BroadcastTenant sends a typed event to every connection bound to the
// given tenant.
func (h *Hub) BroadcastTenant(ctx context.Context, tenantID, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}
	raw, err := json.Marshal(Message{Type: eventType, Payload: data})
	if err != nil {
		slog.Error("marshal ws message", "type", eventType, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.conns {
		if c.tenantID != tenantID {
			continue
		}
		if err := c.ws.Write(ctx, websocket.MessageText, raw); err != nil {
			slog.Debug("websocket write failed", "error", err)
			go h.remove(c)
		}
	}
}

// ConnectionCount returns the number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[c]; ok {
		c.cancel()
		delete(h.conns, c)
		slog.Info("websocket disconnected", "tenant", c.tenantID)
	}
}
