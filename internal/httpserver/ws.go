package httpserver

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"antigravity-engine/internal/bus"
)

// WSHandler streams every pipeline event to connected dashboard clients.
// It holds a single consumer-group subscription per topic and fans events out
// to per-connection buffers; a slow client drops events rather than stalling
// the stream.
type WSHandler struct {
	pipeline *bus.Bus
	origin   string
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[chan bus.Event]struct{}
}

func NewWSHandler(pipeline *bus.Bus, origin string) *WSHandler {
	h := &WSHandler{
		pipeline: pipeline,
		origin:   origin,
		clients:  make(map[chan bus.Event]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return h.allowOrigin(r) },
	}
	return h
}

// Start subscribes the stream to every pipeline topic.
func (h *WSHandler) Start(ctx context.Context) error {
	for topic := range bus.Topics {
		if err := h.pipeline.Subscribe(ctx, topic, "ws-stream", h.broadcast); err != nil {
			return err
		}
	}
	return nil
}

func (h *WSHandler) broadcast(evt bus.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- evt:
		default:
		}
	}
}

func (h *WSHandler) allowOrigin(r *http.Request) bool {
	if h.origin == "" {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == h.origin || origin == h.origin
}

type wsEvent struct {
	ID        string          `json:"id"`
	Topic     string          `json:"topic"`
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	ch := make(chan bus.Event, 64)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.clients, ch)
		h.mu.Unlock()
		_ = conn.Close()
	}()

	// Drain reads so close frames are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for evt := range ch {
		payload := json.RawMessage(evt.Payload)
		if !json.Valid(evt.Payload) {
			encoded, err := json.Marshal(string(evt.Payload))
			if err != nil {
				continue
			}
			payload = encoded
		}
		msg := wsEvent{
			ID:        evt.ID,
			Topic:     string(evt.Topic),
			Key:       evt.Key,
			Payload:   payload,
			Timestamp: evt.Timestamp,
		}
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("[WS] client write failed, dropping connection: %v", err)
			return
		}
	}
}
