package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
)

// WSHub fans server events out to websocket clients. Subscriptions are keyed
// by owner so one user's events never reach another user's socket.
type WSHub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]string
	seq     atomic.Uint64
}

func NewWSHub() *WSHub {
	return &WSHub{clients: map[*websocket.Conn]string{}}
}

type wsEvent struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Topic   string         `json:"topic"`
	Payload map[string]any `json:"payload"`
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}
	s.hub.handle(w, r, userID)
}

func (h *WSHub) handle(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	h.mu.Lock()
	h.clients[conn] = userID
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}()

	// Inbound frames are drained and discarded; the hub is broadcast-only.
	ctx := r.Context()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			return
		}
	}
}

// Publish delivers an event to every socket owned by userID. Slow clients
// are bounded by a short write deadline rather than blocking the publisher.
func (h *WSHub) Publish(userID, topic string, payload map[string]any) {
	if payload == nil {
		payload = map[string]any{}
	}
	evt := wsEvent{
		ID:      fmt.Sprintf("evt_%d", h.seq.Add(1)),
		Type:    "event",
		Topic:   topic,
		Payload: payload,
	}
	msg, err := json.Marshal(evt)
	if err != nil {
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c, owner := range h.clients {
		if owner == userID {
			conns = append(conns, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		_ = c.Write(ctx, websocket.MessageText, msg)
		cancel()
	}
}
