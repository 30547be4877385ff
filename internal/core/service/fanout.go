package service

import (
	"github.com/duocall/duo/internal/core/domain"
	"github.com/duocall/duo/internal/core/port"
	"github.com/rs/zerolog/log"
)

// NewBusFanout returns the bus message handler: it decodes the chat
// envelope, checks the payload's room against the channel it arrived on,
// and re-emits to every locally connected socket in that room. This is how
// a message published on one instance reaches peers attached to another.
func NewBusFanout(gateway port.RoomGateway) func(channel string, payload []byte) {
	return func(channel string, payload []byte) {
		msg, err := domain.DecodeChatMessage(payload)
		if err != nil {
			log.Warn().Err(err).Str("channel", channel).Msg("Dropping malformed bus message")
			return
		}
		if channel != domain.MessageChannel(msg.RoomID) {
			log.Warn().Str("channel", channel).Str("room_id", msg.RoomID.String()).Msg("Dropping bus message on mismatched channel")
			return
		}
		gateway.EmitToRoom(msg.RoomID, port.Event{
			Name: EventMessageReceived,
			Data: MessageReceivedPayload{
				Message: msg.Message,
				RoomID:  msg.RoomID,
				UserID:  msg.UserID,
			},
		})
	}
}
