package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"StockSignal/internal/domain/models"
	"StockSignal/internal/service/metrics"
	applogger "StockSignal/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Message is the frame pushed to clients.
type Message struct {
	Type   string        `json:"type"`
	Signal models.Signal `json:"signal"`
}

// Hub pushes every signal to the connected /ws/signals clients.
// It doubles as a SignalSink for the analyzer.
type Hub struct {
	l       *applogger.Logger
	mu      sync.RWMutex
	clients map[*websocket.Conn]*sync.Mutex
}

func NewHub(l *applogger.Logger) *Hub {
	if l == nil {
		l = applogger.Nop()
	}
	metrics.Register()
	return &Hub{l: l.With(applogger.String("component", "ws_hub")), clients: make(map[*websocket.Conn]*sync.Mutex)}
}

func (h *Hub) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/signals", h.Serve)
}

func (h *Hub) Name() string { return "websocket" }

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Serve upgrades the request and keeps the connection until the client leaves.
func (h *Hub) Serve(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.l.Warn("websocket upgrade failed", applogger.Error(err))
		return nil
	}

	h.mu.Lock()
	h.clients[conn] = &sync.Mutex{}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.WSClients.Set(float64(n))
	h.l.Debug("client connected", applogger.Int("clients", n))

	defer h.drop(conn)

	// clients never send anything meaningful; reading detects the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.l.Warn("websocket read error", applogger.Error(err))
			}
			return nil
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		_ = conn.Close()
		metrics.WSClients.Set(float64(n))
		h.l.Debug("client disconnected", applogger.Int("clients", n))
	}
}

// Consume broadcasts s. Clients that fail the write are disconnected.
func (h *Hub) Consume(_ context.Context, s models.Signal) error {
	data, err := json.Marshal(Message{Type: "signal", Signal: s})
	if err != nil {
		return err
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	locks := make([]*sync.Mutex, 0, len(h.clients))
	for conn, mu := range h.clients {
		conns = append(conns, conn)
		locks = append(locks, mu)
	}
	h.mu.RUnlock()

	for i, conn := range conns {
		locks[i].Lock()
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := conn.WriteMessage(websocket.TextMessage, data)
		locks[i].Unlock()
		if err != nil {
			h.l.Warn("websocket write failed", applogger.Error(err))
			h.drop(conn)
		}
	}
	return nil
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := h.clients
	h.clients = make(map[*websocket.Conn]*sync.Mutex)
	h.mu.Unlock()
	for conn, mu := range conns {
		mu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"), time.Now().Add(time.Second))
		mu.Unlock()
		_ = conn.Close()
	}
	metrics.WSClients.Set(0)
}
