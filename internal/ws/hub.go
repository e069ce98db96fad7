package ws

import (
	"encoding/json"
	"sync"

	"wordstake_backend/internal/domain"
	"wordstake_backend/internal/logger"
)

// Hub fans game snapshots out to subscribed connections. Subscriptions are
// keyed by game id; a client watches exactly one game. State changes flow
// one way, from the services into the hub; play actions stay on the HTTP
// API.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Client]struct{})}
}

// Subscribe attaches a client to a game's broadcast set.
func (h *Hub) Subscribe(gameID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[gameID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[gameID] = room
	}
	room[c] = struct{}{}
}

// Unsubscribe detaches a client, dropping the room when it empties.
func (h *Hub) Unsubscribe(gameID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[gameID]
	if !ok {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, gameID)
	}
}

// Event is the wire envelope for every hub broadcast.
type Event struct {
	Type string      `json:"type"`
	Game interface{} `json:"game,omitempty"`
}

// PublishGame broadcasts a fresh snapshot to the game's subscribers. Slow
// consumers are skipped, never waited on.
func (h *Hub) PublishGame(g *domain.GameRecord) {
	if g == nil {
		return
	}

	payload, err := json.Marshal(Event{Type: "game_update", Game: g})
	if err != nil {
		logger.Error("snapshot marshal failed", "game_id", g.ID, "error", err)
		return
	}

	// sends stay under the read lock: Unsubscribe takes the write lock, so a
	// client's send channel cannot be closed while a broadcast still holds it
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[g.ID] {
		select {
		case c.send <- payload:
		default:
			logger.Warn("dropping slow subscriber", "game_id", g.ID, "wallet", c.Wallet)
		}
	}
}

// Subscribers returns the current subscriber count for a game.
func (h *Hub) Subscribers(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[gameID])
}
