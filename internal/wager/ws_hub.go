// Package wager — WebSocket hub broadcasting ledger notifications.
package wager

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/oddspool/wager-engine/internal/metrics"
	"github.com/oddspool/wager-engine/internal/model"
)

// WSMessage is a JSON notification sent to WebSocket clients. One message
// is emitted per ledger transition: event_created, bet_placed,
// event_resolved, winnings_claimed.
type WSMessage struct {
	Type           string `json:"type"`
	EventID        int64  `json:"event_id,omitempty"`
	Title          string `json:"title,omitempty"`
	BetID          int64  `json:"bet_id,omitempty"`
	Bettor         string `json:"bettor,omitempty"`
	Amount         string `json:"amount,omitempty"`
	Outcome        string `json:"outcome,omitempty"`
	BetType        string `json:"bet_type,omitempty"`
	WinningOutcome string `json:"winning_outcome,omitempty"`
	Payout         string `json:"payout,omitempty"`
}

// WSHub manages WebSocket connections and broadcasts ledger notifications
// to all connected clients. It implements Notifier.
type WSHub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mu         sync.RWMutex
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
	}
}

// Run starts the hub's main event loop. Must be called in a goroutine.
func (h *WSHub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			h.mu.Unlock()
			metrics.WebSocketClients.Inc()
			slog.Info("ws client connected", "total", len(h.clients))

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
				metrics.WebSocketClients.Dec()
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			// Full lock: failed writes drop clients from the map.
			h.mu.Lock()
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends a message to all connected clients.
func (h *WSHub) Broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case h.broadcast <- data:
	default:
		// Drop if buffer full to avoid blocking ledger operations.
	}
}

// --- Notifier implementation ---

func (h *WSHub) EventCreated(e *model.Event) {
	h.Broadcast(WSMessage{
		Type:    "event_created",
		EventID: e.ID,
		Title:   e.Title,
	})
}

func (h *WSHub) BetPlaced(b *model.Bet) {
	h.Broadcast(WSMessage{
		Type:    "bet_placed",
		BetID:   b.ID,
		EventID: b.EventID,
		Bettor:  b.Bettor,
		Amount:  b.Amount.String(),
		Outcome: b.ChosenOutcome,
		BetType: string(b.Type),
	})
}

func (h *WSHub) EventResolved(e *model.Event) {
	h.Broadcast(WSMessage{
		Type:           "event_resolved",
		EventID:        e.ID,
		WinningOutcome: e.WinningOutcome,
	})
}

func (h *WSHub) WinningsClaimed(b *model.Bet, payout decimal.Decimal) {
	h.Broadcast(WSMessage{
		Type:    "winnings_claimed",
		BetID:   b.ID,
		EventID: b.EventID,
		Bettor:  b.Bettor,
		Payout:  payout.String(),
	})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true // Allow all origins during development.
	},
}

// HandleWS handles WebSocket upgrade requests at GET /api/v1/ws.
func (h *WSHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("ws upgrade failed", "err", err)
		return
	}

	h.register <- conn

	// Read pump: keep connection alive and detect disconnects.
	go func() {
		defer func() { h.unregister <- conn }()
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()

	// Ping ticker to keep connection alive through proxies.
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			h.mu.RLock()
			_, ok := h.clients[conn]
			h.mu.RUnlock()
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}()
}
