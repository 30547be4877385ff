package ws

import (
	"sync"

	"github.com/duocall/duo/internal/core/domain"
	"github.com/duocall/duo/internal/core/port"
	"github.com/rs/zerolog/log"
)

// Hub implements port.RoomGateway: the registry of this instance's
// connected sockets and which room each of them currently occupies.
// Cross-instance fanout is the bus's job, not the hub's.
type Hub struct {
	mu      sync.Mutex
	clients map[domain.SocketID]port.Client
	rooms   map[domain.RoomID]map[domain.SocketID]port.Client

	quit chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[domain.SocketID]port.Client),
		rooms:   make(map[domain.RoomID]map[domain.SocketID]port.Client),
		quit:    make(chan struct{}),
	}
}

// Run blocks until Stop, then disconnects every remaining client.
func (h *Hub) Run() {
	<-h.quit

	h.mu.Lock()
	defer h.mu.Unlock()
	log.Info().Int("count", len(h.clients)).Msg("Stopping hub. Disconnecting all clients.")
	for id, client := range h.clients {
		if err := client.Close(); err != nil {
			log.Error().Err(err).Str("socket_id", id.String()).Msg("Error closing client connection")
		}
		delete(h.clients, id)
	}
	h.rooms = make(map[domain.RoomID]map[domain.SocketID]port.Client)
}

func (h *Hub) Stop() {
	close(h.quit)
}

func (h *Hub) Register(c port.Client) {
	h.mu.Lock()
	h.clients[c.SocketID()] = c
	count := len(h.clients)
	h.mu.Unlock()
	log.Info().Int("count", count).Str("socket_id", c.SocketID().String()).Msg("Client registered")
}

func (h *Hub) Unregister(c port.Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.SocketID()]; ok {
		delete(h.clients, c.SocketID())
		for roomID, members := range h.rooms {
			delete(members, c.SocketID())
			if len(members) == 0 {
				delete(h.rooms, roomID)
			}
		}
		c.Close()
	}
	h.mu.Unlock()
	log.Info().Str("socket_id", c.SocketID().String()).Msg("Client unregistered")
}

func (h *Hub) JoinLocal(roomID domain.RoomID, c port.Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[domain.SocketID]port.Client)
	}
	h.rooms[roomID][c.SocketID()] = c
}

func (h *Hub) LeaveLocal(roomID domain.RoomID, c port.Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[roomID]; ok {
		delete(members, c.SocketID())
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

func (h *Hub) LocalRoomCount(roomID domain.RoomID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[roomID])
}

func (h *Hub) EmitToRoom(roomID domain.RoomID, event port.Event) {
	h.mu.Lock()
	members := make([]port.Client, 0, len(h.rooms[roomID]))
	for _, c := range h.rooms[roomID] {
		members = append(members, c)
	}
	h.mu.Unlock()

	for _, c := range members {
		if err := c.Emit(event); err != nil {
			log.Error().Err(err).
				Str("socket_id", c.SocketID().String()).
				Str("event", event.Name).
				Msg("Error emitting to room member")
		}
	}
}

func (h *Hub) EmitToSocket(socketID domain.SocketID, event port.Event) {
	h.mu.Lock()
	c, ok := h.clients[socketID]
	h.mu.Unlock()
	if !ok {
		// Socket may live on another instance or be gone; nothing to do here.
		return
	}
	if err := c.Emit(event); err != nil {
		log.Error().Err(err).
			Str("socket_id", socketID.String()).
			Str("event", event.Name).
			Msg("Error emitting to socket")
	}
}
