package domain

import (
	"encoding/json"
	"time"
)

// SDP offers/answers and ICE candidates are opaque browser payloads; the
// server stores and relays them without inspecting their contents.
type SessionDescription = json.RawMessage
type IceCandidate = json.RawMessage

// Signaling records are a cache of in-flight negotiation state, not a
// system of record. They expire and are regenerated on the next
// negotiation attempt.
const (
	SignalTTL = 5 * time.Minute
	RoomTTL   = 24 * time.Hour
)

// ChatMessage is the envelope published on a room's bus channel.
type ChatMessage struct {
	Message string `json:"message"`
	RoomID  RoomID `json:"roomId"`
	UserID  UserID `json:"userId"`
}

func (m ChatMessage) Encode() ([]byte, error) {
	return json.Marshal(m)
}

func DecodeChatMessage(payload []byte) (ChatMessage, error) {
	var m ChatMessage
	err := json.Unmarshal(payload, &m)
	return m, err
}

// MessageChannel names the pub/sub channel carrying a room's chat traffic.
func MessageChannel(roomID RoomID) string {
	return "MESSAGE" + roomID.String()
}
