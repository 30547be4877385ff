package domain

import (
	"github.com/google/uuid"
)

// RoomID and UserID are opaque, client-supplied identifiers. SocketID
// identifies one transport session and is minted server-side.
type RoomID string
type UserID string
type SocketID string

func NewSocketID() SocketID {
	return SocketID(uuid.New().String())
}

func (id RoomID) String() string {
	return string(id)
}

func (id UserID) String() string {
	return string(id)
}

func (id SocketID) String() string {
	return string(id)
}
