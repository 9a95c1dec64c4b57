// Package relay forwards received lines to websocket clients.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// clientBuffer is the number of lines buffered per client before lines get dropped
const clientBuffer = 256

// Client represents a single websocket subscriber
type Client struct {
	ID    string
	Lines chan string
}

// Hub manages websocket clients and broadcasts lines to them
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	nextID  int
	closing chan struct{}
	once    sync.Once
	log     *slog.Logger

	upgrader websocket.Upgrader
}

// NewHub creates a new hub
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		closing: make(chan struct{}),
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// Register adds a new client
func (h *Hub) Register() *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	client := &Client{
		ID:    strconv.Itoa(h.nextID),
		Lines: make(chan string, clientBuffer),
	}
	h.clients[client.ID] = client
	h.log.Info("Relay client registered", "clientID", client.ID)
	return client
}

// Unregister removes a client. Its Lines channel is not closed, the handler stops reading it.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[clientID]; ok {
		delete(h.clients, clientID)
		h.log.Info("Relay client unregistered", "clientID", clientID)
	}
}

// Broadcast sends line to every client without blocking. Slow clients miss lines.
func (h *Hub) Broadcast(line string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		select {
		case client.Lines <- line:
		default:
			// Channel full, skip
			h.log.Warn("Relay client channel full, dropping line", "clientID", client.ID)
		}
	}
}

// Len returns the number of registered clients
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects all clients
func (h *Hub) Close() {
	h.once.Do(func() { close(h.closing) })
}

// ServeHTTP upgrades the request to a websocket and streams lines as text messages
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		h.log.Warn("Websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}
	defer func() { _ = conn.Close() }()

	client := h.Register()
	defer h.Unregister(client.ID)

	// Incoming messages are ignored, reading detects the client going away
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case line := <-client.Lines:
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				h.log.Warn("Relay write failed", "clientID", client.ID, "error", err)
				return
			}
		case <-readDone:
			return
		case <-h.closing:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "stream ended")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			return
		}
	}
}

// Serve listens on addr and serves the hub at /lines until ctx is cancelled
func Serve(ctx context.Context, addr string, hub *Hub) error {
	mux := http.NewServeMux()
	mux.Handle("/lines", hub)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		hub.log.Info("Relay listening", "addr", addr)
		errChan <- server.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("relay server failed: %w", err)
	case <-ctx.Done():
	}

	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("relay shutdown failed: %w", err)
	}
	return nil
}
