package http

import (
	"encoding/json"
	"errors"

	"github.com/duocall/duo/internal/core/domain"
)

// Client-to-server event names.
const (
	eventJoinRoom      = "join-room"
	eventLeaveRoom     = "leave-room"
	eventMessage       = "message"
	eventOffer         = "offer"
	eventAnswer        = "answer"
	eventExchangeICE   = "exchangeICEcandidate"
	eventChangeOfferer = "changeOfferer"
	eventRoomData      = "room-data"
)

// envelope is one inbound websocket frame. Payloads stay raw until the
// event name selects a typed struct; validation happens before anything
// reaches the session coordinator.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Ack   *int64          `json:"ack,omitempty"`
}

type joinRoomPayload struct {
	RoomID   domain.RoomID `json:"roomId"`
	UserID   domain.UserID `json:"userId"`
	UserData struct {
		Avatar         string `json:"avatar"`
		IsAudioEnabled bool   `json:"isAudioEnabled"`
		IsVideoEnabled bool   `json:"isVideoEnabled"`
	} `json:"userData"`
}

func (p *joinRoomPayload) validate() error {
	if p.RoomID == "" || p.UserID == "" {
		return errors.New("join-room requires roomId and userId")
	}
	return nil
}

type leaveRoomPayload struct {
	RoomID domain.RoomID `json:"roomId"`
	UserID domain.UserID `json:"userId"`
}

func (p *leaveRoomPayload) validate() error {
	if p.RoomID == "" || p.UserID == "" {
		return errors.New("leave-room requires roomId and userId")
	}
	return nil
}

type messagePayload struct {
	Message string        `json:"message"`
	RoomID  domain.RoomID `json:"roomId"`
	UserID  domain.UserID `json:"userId"`
}

func (p *messagePayload) validate() error {
	if p.RoomID == "" || p.UserID == "" {
		return errors.New("message requires roomId and userId")
	}
	return nil
}

type offerPayload struct {
	RoomID domain.RoomID             `json:"roomId"`
	UserID domain.UserID             `json:"userId"`
	Offer  domain.SessionDescription `json:"offer"`
}

func (p *offerPayload) validate() error {
	if p.RoomID == "" || len(p.Offer) == 0 {
		return errors.New("offer requires roomId and offer")
	}
	return nil
}

type answerPayload struct {
	RoomID          domain.RoomID             `json:"roomId"`
	OffererSocketID domain.SocketID           `json:"offererSocketId"`
	UserID          domain.UserID             `json:"userId"`
	UserSocketID    domain.SocketID           `json:"userSocketId"`
	Answer          domain.SessionDescription `json:"answer"`
}

func (p *answerPayload) validate() error {
	if p.RoomID == "" || p.OffererSocketID == "" || len(p.Answer) == 0 {
		return errors.New("answer requires roomId, offererSocketId and answer")
	}
	return nil
}

type exchangeICEPayload struct {
	Candidate        domain.IceCandidate `json:"candidate"`
	RoomID           domain.RoomID       `json:"roomId"`
	SenderSocketID   domain.SocketID     `json:"senderSocketId"`
	ReceiverSocketID domain.SocketID     `json:"receiverSocketId"`
}

func (p *exchangeICEPayload) validate() error {
	if p.RoomID == "" || p.ReceiverSocketID == "" || len(p.Candidate) == 0 {
		return errors.New("exchangeICEcandidate requires roomId, receiverSocketId and candidate")
	}
	return nil
}

type changeOffererPayload struct {
	RoomID             domain.RoomID   `json:"roomId"`
	NewOffererID       domain.UserID   `json:"newOffererId"`
	NewOffererSocketID domain.SocketID `json:"newOffererSocketId"`
}

func (p *changeOffererPayload) validate() error {
	if p.RoomID == "" || p.NewOffererSocketID == "" {
		return errors.New("changeOfferer requires roomId and newOffererSocketId")
	}
	return nil
}

type roomDataPayload struct {
	RoomID domain.RoomID `json:"roomId"`
}

func (p *roomDataPayload) validate() error {
	if p.RoomID == "" {
		return errors.New("room-data requires roomId")
	}
	return nil
}
