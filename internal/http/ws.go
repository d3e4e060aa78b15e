package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboards connect from the same origin the API serves; anything else
	// is rejected.
	CheckOrigin: func(r *http.Request) bool {
		return r.Header.Get("Origin") == "" || r.Header.Get("Origin") == "http://"+r.Host || r.Header.Get("Origin") == "https://"+r.Host
	},
}

// wsClient is a single dashboard connection with a buffered send queue.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans ledger updates out to connected dashboards. Register, unregister
// and broadcast all flow through channels owned by the run loop.
type Hub struct {
	clients    map[*wsClient]bool
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan []byte
	done       chan struct{}
	wg         sync.WaitGroup
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan []byte, 16),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Start() {
	h.wg.Add(1)
	go h.run()
}

func (h *Hub) Stop() {
	close(h.done)
	h.wg.Wait()
}

func (h *Hub) run() {
	defer h.wg.Done()
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			slog.Debug("Websocket client connected", "clients", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			slog.Debug("Websocket client disconnected", "clients", len(h.clients))

		case msg := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// Slow consumer, drop it rather than block the hub.
					delete(h.clients, client)
					close(client.send)
				}
			}

		case <-h.done:
			for client := range h.clients {
				close(client.send)
				if client.conn != nil {
					_ = client.conn.Close()
				}
				delete(h.clients, client)
			}
			return
		}
	}
}

// BroadcastSummary pushes the latest summary to every connected client.
// Dropped silently when nobody is listening and the buffer is full.
func (h *Hub) BroadcastSummary(v summaryView) {
	payload, err := json.Marshal(struct {
		Kind    string      `json:"kind"`
		Summary summaryView `json:"summary"`
	}{Kind: "summary", Summary: v})
	if err != nil {
		slog.Error("Summary broadcast marshal failed", "error", err)
		return
	}
	select {
	case h.broadcast <- payload:
	default:
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.ErrorContext(r.Context(), "Websocket upgrade failed", "error", err)
		return
	}

	client := &wsClient{conn: conn, send: make(chan []byte, 8)}
	select {
	case s.hub.register <- client:
	case <-s.hub.done:
		// Hub already stopped; refuse the connection.
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(s.hub)

	// Seed the new connection with the current summary.
	if sum, err := s.ledger.Summary(r.Context()); err == nil {
		if payload, err := json.Marshal(struct {
			Kind    string      `json:"kind"`
			Summary summaryView `json:"summary"`
		}{Kind: "summary", Summary: toSummaryView(sum)}); err == nil {
			select {
			case client.send <- payload:
			default:
			}
		}
	}
}

func (c *wsClient) writePump() {
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

// readPump drains the connection so pongs and close frames are processed;
// inbound payloads are ignored, the stream is push-only.
func (c *wsClient) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
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
