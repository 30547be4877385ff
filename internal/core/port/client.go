package port

import "github.com/duocall/duo/internal/core/domain"

// Event is one server-to-client frame.
type Event struct {
	Name string
	Data any
	Ack  *int64
}

// Client is one connected transport session.
type Client interface {
	SocketID() domain.SocketID
	Emit(event Event) error
	Close() error
}
