package ws

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"wordroom-server/auth"
	"wordroom-server/room"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for development; restrict in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub tracks live connections and hands each new one to its room. Rooms
// own all game state; the hub only does the upgrade, the handshake
// parameter parsing, and connection accounting.
type Hub struct {
	rooms    *room.Manager
	verifier *auth.Verifier

	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
}

// NewHub creates a Hub routing connections into the given room manager.
func NewHub(rooms *room.Manager, verifier *auth.Verifier) *Hub {
	return &Hub{
		rooms:      rooms,
		verifier:   verifier,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run is the hub's accounting loop. Should be run as a goroutine; returns
// when ctx is cancelled, closing every remaining connection.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			slog.Info("shutting down, closing connections", "tag", "hub", "clients", len(h.clients))
			for c := range h.clients {
				c.conn.Close()
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			slog.Info("client connected", "tag", "hub", "conn", c.ID, "total", len(h.clients))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				slog.Info("client disconnected", "tag", "hub", "conn", c.ID, "total", len(h.clients))
			}
		}
	}
}

// ServeWS handles a websocket upgrade request. Handshake parameters are
// query values: room (required), name, password, mode, token.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	roomID := strings.TrimSpace(query.Get("room"))
	if roomID == "" {
		http.Error(w, "room parameter is required", http.StatusBadRequest)
		return
	}

	name := query.Get("name")
	clientID := ""
	if token := query.Get("token"); token != "" {
		// A bad token degrades to an anonymous connection.
		if identity, err := h.verifier.Verify(token); err != nil {
			slog.Info("token rejected, continuing anonymously", "tag", "hub", "err", err)
		} else {
			clientID = identity.ClientID
			if name == "" {
				name = identity.Name
			}
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("upgrade failed", "tag", "hub", "err", err)
		return
	}

	rm := h.rooms.Get(roomID)
	client := &Client{
		ID:   uuid.NewString(),
		hub:  h,
		conn: conn,
		room: rm,
		send: make(chan []byte, 256),
	}
	h.register <- client

	go client.WritePump()
	go client.ReadPump()

	rm.Join(room.JoinRequest{
		Conn: room.Conn{
			ID:       client.ID,
			IP:       clientIP(r),
			ClientID: clientID,
			Send:     client.send,
			Close:    client.CloseWithCode,
		},
		Name:     name,
		Password: query.Get("password"),
		Mode:     query.Get("mode"),
	})
}

// clientIP prefers the first X-Forwarded-For hop so moderation sees the
// real address behind a reverse proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, found := strings.Cut(fwd, ","); found || first != "" {
			return strings.TrimSpace(first)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
