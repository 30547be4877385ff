package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/duocall/duo/internal/core/domain"
	"github.com/duocall/duo/internal/core/port"
	"github.com/duocall/duo/internal/core/service"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: restrict origins outside dev
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSClient wraps one websocket connection. Writes come from both the
// session's own handler and the hub's fanout goroutine, so they serialize
// on a mutex.
type WSClient struct {
	id   domain.SocketID
	conn *websocket.Conn

	writeMu sync.Mutex
}

func (c *WSClient) SocketID() domain.SocketID {
	return c.id
}

func (c *WSClient) Emit(event port.Event) error {
	frame := struct {
		Event string `json:"event"`
		Data  any    `json:"data,omitempty"`
		Ack   *int64 `json:"ack,omitempty"`
	}{
		Event: event.Name,
		Data:  event.Data,
		Ack:   event.Ack,
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(frame)
}

func (c *WSClient) Close() error {
	return c.conn.Close()
}

// ServeWS upgrades the connection, binds a session coordinator to it, and
// pumps frames into the coordinator in arrival order.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Error while upgrading ws")
		return
	}

	client := &WSClient{
		id:   domain.NewSocketID(),
		conn: conn,
	}

	l := log.With().Str("socket_id", client.id.String()).Logger()
	l.Info().Msg("New client connected")

	h.Hub.Register(client)
	session := service.NewSession(h.Dir, h.Signals, h.Bus, h.Hub, client, h.Opts, l)

	defer func() {
		if err := session.HandleDisconnect(context.Background()); err != nil {
			l.Error().Err(err).Msg("Disconnect cleanup failed")
		}
		h.Hub.Unregister(client)
		l.Info().Msg("Client disconnected")
	}()

	for {
		var frame envelope
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				l.Error().Err(err).Msg("Unexpected close error")
			}
			break
		}
		if err := h.dispatch(r.Context(), session, client, frame); err != nil {
			l.Error().Err(err).Str("event", frame.Event).Msg("Event handler failed")
		}
	}
}

// dispatch decodes and validates one frame, then hands it to the session.
// A handler failure aborts that frame only; the connection stays usable.
func (h *Handler) dispatch(ctx context.Context, session *service.Session, client *WSClient, frame envelope) error {
	badFrame := func(err error) error {
		client.Emit(port.Event{Name: service.EventRoomError, Data: err.Error()})
		return err
	}

	switch frame.Event {
	case eventJoinRoom:
		var p joinRoomPayload
		if err := decode(frame.Data, &p, p.validate); err != nil {
			return badFrame(err)
		}
		return session.HandleJoinRoom(ctx, p.RoomID, p.UserID, domain.UserData{
			Avatar:         p.UserData.Avatar,
			IsAudioEnabled: p.UserData.IsAudioEnabled,
			IsVideoEnabled: p.UserData.IsVideoEnabled,
		})

	case eventLeaveRoom:
		var p leaveRoomPayload
		if err := decode(frame.Data, &p, p.validate); err != nil {
			return badFrame(err)
		}
		return session.HandleLeaveRoom(ctx, p.RoomID, p.UserID)

	case eventMessage:
		var p messagePayload
		if err := decode(frame.Data, &p, p.validate); err != nil {
			return badFrame(err)
		}
		return session.HandleMessage(ctx, p.Message, p.RoomID, p.UserID)

	case eventOffer:
		var p offerPayload
		if err := decode(frame.Data, &p, p.validate); err != nil {
			return badFrame(err)
		}
		return session.HandleOffer(ctx, p.RoomID, p.UserID, p.Offer)

	case eventAnswer:
		var p answerPayload
		if err := decode(frame.Data, &p, p.validate); err != nil {
			return badFrame(err)
		}
		return session.HandleAnswer(ctx, p.RoomID, p.OffererSocketID, p.UserID, p.UserSocketID, p.Answer)

	case eventExchangeICE:
		var p exchangeICEPayload
		if err := decode(frame.Data, &p, p.validate); err != nil {
			return badFrame(err)
		}
		return session.HandleIceCandidate(ctx, p.Candidate, p.RoomID, p.SenderSocketID, p.ReceiverSocketID)

	case eventChangeOfferer:
		var p changeOffererPayload
		if err := decode(frame.Data, &p, p.validate); err != nil {
			return badFrame(err)
		}
		return session.HandleChangeOfferer(ctx, p.RoomID, p.NewOffererID, p.NewOffererSocketID)

	case eventRoomData:
		var p roomDataPayload
		if err := decode(frame.Data, &p, p.validate); err != nil {
			return badFrame(err)
		}
		return session.HandleRoomData(ctx, p.RoomID, frame.Ack)

	default:
		log.Warn().Str("event", frame.Event).Msg("Unknown event")
		return nil
	}
}

func decode(raw json.RawMessage, dst any, validate func() error) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return err
	}
	return validate()
}
