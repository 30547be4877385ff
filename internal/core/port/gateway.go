package port

import "github.com/duocall/duo/internal/core/domain"

// RoomGateway delivers events to locally connected sockets. Cross-instance
// delivery goes through the MessageBus; the gateway only knows this
// instance's connections.
type RoomGateway interface {
	JoinLocal(roomID domain.RoomID, c Client)
	LeaveLocal(roomID domain.RoomID, c Client)
	LocalRoomCount(roomID domain.RoomID) int

	EmitToRoom(roomID domain.RoomID, event Event)
	EmitToSocket(socketID domain.SocketID, event Event)
}
