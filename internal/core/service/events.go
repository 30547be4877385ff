package service

import "github.com/duocall/duo/internal/core/domain"

// Server-to-client event names.
const (
	EventRoomJoined           = "room-joined"
	EventRoomUsers            = "room-users"
	EventRoomLeft             = "room-left"
	EventRoomError            = "room-error"
	EventMessageReceived      = "message-received"
	EventCreateOffer          = "createOffer"
	EventOfferReceived        = "offer-received"
	EventAnswerReceived       = "answer-received"
	EventIceCandidateReceived = "ice-candidate-received"
	EventOffererChanged       = "offerer-changed"
	EventRoomData             = "room-data"
)

const (
	msgRoomFull  = "You can't join this room"
	msgNotInRoom = "You are not in this room !!"
)

type RoomJoinedPayload struct {
	RoomID domain.RoomID `json:"roomId"`
	UserID domain.UserID `json:"userId"`
}

type RoomUsersPayload struct {
	RoomID domain.RoomID   `json:"roomId"`
	Users  []domain.UserID `json:"users"`
}

type RoomLeftPayload struct {
	RoomID domain.RoomID `json:"roomId"`
	UserID domain.UserID `json:"userId"`
}

type MessageReceivedPayload struct {
	Message string        `json:"message"`
	RoomID  domain.RoomID `json:"roomId"`
	UserID  domain.UserID `json:"userId"`
}

type CreateOfferPayload struct {
	RoomID domain.RoomID `json:"roomId"`
	UserID domain.UserID `json:"userId"`
}

type OfferReceivedPayload struct {
	RoomID          domain.RoomID             `json:"roomId"`
	OffererSocketID domain.SocketID           `json:"offererSocketId"`
	UserID          domain.UserID             `json:"userId"`
	UserSocketID    domain.SocketID           `json:"userSocketId"`
	Offer           domain.SessionDescription `json:"offer"`
}

type AnswerReceivedPayload struct {
	RoomID          domain.RoomID             `json:"roomId"`
	OffererSocketID domain.SocketID           `json:"offererSocketId"`
	UserID          domain.UserID             `json:"userId"`
	UserSocketID    domain.SocketID           `json:"userSocketId"`
	Answer          domain.SessionDescription `json:"answer"`
}

type IceCandidateReceivedPayload struct {
	Candidate      domain.IceCandidate `json:"candidate"`
	SenderSocketID domain.SocketID     `json:"senderSocketId"`
}

type OffererChangedPayload struct {
	RoomID             domain.RoomID   `json:"roomId"`
	NewOffererID       domain.UserID   `json:"newOffererId"`
	NewOffererSocketID domain.SocketID `json:"newOffererSocketId"`
}

type RoomDataAck struct {
	Status  string `json:"status"`
	Message any    `json:"message"`
}
