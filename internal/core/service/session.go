package service

import (
	"context"
	"errors"
	"time"

	"github.com/duocall/duo/internal/core/domain"
	"github.com/duocall/duo/internal/core/port"
	"github.com/rs/zerolog"
)

// CleanupPolicy decides what happens to a user's durable room state when
// the transport drops without an explicit leave-room.
type CleanupPolicy string

const (
	// CleanupNever leaves the keys to their 24h TTL, favoring reconnection.
	CleanupNever CleanupPolicy = "never"
	// CleanupImmediate runs full leave-room cleanup on disconnect.
	CleanupImmediate CleanupPolicy = "immediate"
	// CleanupDelayed shrinks the membership TTL to the signaling TTL,
	// keeping a short reconnect grace window.
	CleanupDelayed CleanupPolicy = "delayed"
)

type Options struct {
	RoomCapacity        int
	SignalTTL           time.Duration
	PersistICE          bool
	CleanupOnDisconnect CleanupPolicy
}

func DefaultOptions() Options {
	return Options{
		RoomCapacity:        2,
		SignalTTL:           domain.SignalTTL,
		CleanupOnDisconnect: CleanupNever,
	}
}

// Session is the per-connection coordinator. It consumes client events,
// drives the room directory and signaling store, and emits events back to
// local connections through the gateway and to remote ones through the bus.
//
// Handlers for one session never run concurrently; the transport adapter
// processes a connection's frames in arrival order. A store failure aborts
// the current handler and nothing more: the socket stays connected and the
// next event gets a fresh attempt.
type Session struct {
	dir     port.RoomDirectory
	signals port.SignalingStore
	bus     port.MessageBus
	gateway port.RoomGateway
	client  port.Client
	opts    Options
	log     zerolog.Logger

	currentRoomID domain.RoomID
	currentUserID domain.UserID
}

func NewSession(
	dir port.RoomDirectory,
	signals port.SignalingStore,
	bus port.MessageBus,
	gateway port.RoomGateway,
	client port.Client,
	opts Options,
	logger zerolog.Logger,
) *Session {
	if opts.RoomCapacity <= 0 {
		opts.RoomCapacity = 2
	}
	if opts.SignalTTL <= 0 {
		opts.SignalTTL = domain.SignalTTL
	}
	return &Session{
		dir:     dir,
		signals: signals,
		bus:     bus,
		gateway: gateway,
		client:  client,
		opts:    opts,
		log:     logger,
	}
}

func (s *Session) CurrentRoomID() domain.RoomID { return s.currentRoomID }
func (s *Session) CurrentUserID() domain.UserID { return s.currentUserID }

func (s *Session) emitError(reason string) {
	s.client.Emit(port.Event{Name: EventRoomError, Data: reason})
}

// HandleJoinRoom is the Idle -> InRoom transition.
func (s *Session) HandleJoinRoom(ctx context.Context, roomID domain.RoomID, userID domain.UserID, data domain.UserData) error {
	exists, err := s.dir.RoomExists(ctx, roomID)
	if err != nil {
		return err
	}
	if !exists {
		err := s.dir.CreateRoom(ctx, roomID, domain.RoomData{
			RoomName: roomID.String(),
			IsActive: true,
		})
		// Lost creation race against another instance is fine; the room is there.
		if err != nil && !errors.Is(err, domain.ErrRoomExists) {
			return err
		}
	}

	data.SocketID = s.client.SocketID()
	ok, err := s.dir.TryAddUserToRoom(ctx, roomID, userID, data, s.opts.RoomCapacity)
	if err != nil {
		return err
	}
	if !ok {
		// A rejected join leaves everything untouched, including any room
		// this session already occupies.
		s.emitError(msgRoomFull)
		return domain.ErrRoomFull
	}

	// The join is accepted; only now detach from any previously joined room.
	if prevRoomID := s.currentRoomID; prevRoomID != "" && prevRoomID != roomID {
		if err := s.leaveCurrentRoom(ctx); err != nil {
			s.log.Error().Err(err).Str("room_id", prevRoomID.String()).Msg("Failed to leave previous room")
		}
	}

	// The declared roomSize counter follows the membership set.
	size, err := s.dir.GetRoomSize(ctx, roomID)
	if err != nil {
		return err
	}
	if err := s.dir.UpdateRoomData(ctx, roomID, domain.RoomUpdate{RoomSize: &size}); err != nil {
		return err
	}

	s.currentRoomID = roomID
	s.currentUserID = userID
	s.gateway.JoinLocal(roomID, s.client)

	if err := s.bus.Subscribe(ctx, domain.MessageChannel(roomID)); err != nil {
		return err
	}

	users, err := s.dir.GetRoomUsers(ctx, roomID)
	if err != nil {
		return err
	}
	s.gateway.EmitToRoom(roomID, port.Event{Name: EventRoomJoined, Data: RoomJoinedPayload{RoomID: roomID, UserID: userID}})
	s.gateway.EmitToRoom(roomID, port.Event{Name: EventRoomUsers, Data: RoomUsersPayload{RoomID: roomID, Users: userIDs(users)}})

	s.log.Info().Str("room_id", roomID.String()).Str("user_id", userID.String()).Int("size", size).Msg("User joined room")

	if size == 1 {
		// First member initiates: ask it to create an offer and elect it.
		s.gateway.EmitToSocket(s.client.SocketID(), port.Event{
			Name: EventCreateOffer,
			Data: CreateOfferPayload{RoomID: roomID, UserID: userID},
		})
		if _, err := s.signals.ChangeOfferer(ctx, roomID, s.dir); err != nil {
			return err
		}
		return nil
	}

	// A peer is already negotiating: hand the stored offer to the newcomer.
	offerer, err := s.signals.GetOfferer(ctx, roomID)
	if err != nil {
		return err
	}
	offer, err := s.signals.GetOffer(ctx, roomID)
	if err != nil {
		return err
	}
	if offerer != "" && offerer != s.client.SocketID() && offer != nil {
		s.gateway.EmitToSocket(s.client.SocketID(), port.Event{
			Name: EventOfferReceived,
			Data: OfferReceivedPayload{
				RoomID:          roomID,
				OffererSocketID: offerer,
				UserID:          userID,
				UserSocketID:    s.client.SocketID(),
				Offer:           offer,
			},
		})
	}
	return nil
}

// HandleLeaveRoom is the InRoom -> Idle transition.
func (s *Session) HandleLeaveRoom(ctx context.Context, roomID domain.RoomID, userID domain.UserID) error {
	inRoom, err := s.dir.IsUserInRoom(ctx, roomID, userID)
	if err != nil {
		return err
	}
	exists, err := s.dir.RoomExists(ctx, roomID)
	if err != nil {
		return err
	}
	if !inRoom || !exists {
		s.emitError(msgNotInRoom)
		return domain.ErrNotInRoom
	}

	departingSocket := s.client.SocketID()
	occupied, err := s.dir.RemoveUserFromRoom(ctx, roomID, userID)
	if err != nil {
		return err
	}

	offerer, err := s.signals.GetOfferer(ctx, roomID)
	if err != nil {
		return err
	}
	if offerer == departingSocket && occupied {
		elected, err := s.signals.ChangeOfferer(ctx, roomID, s.dir)
		if err != nil && !errors.Is(err, domain.ErrNoEligiblePeers) {
			return err
		}
		if err == nil {
			s.gateway.EmitToRoom(roomID, port.Event{
				Name: EventOffererChanged,
				Data: OffererChangedPayload{
					RoomID:             roomID,
					NewOffererID:       elected.UserID,
					NewOffererSocketID: elected.SocketID,
				},
			})
		}
	}

	s.gateway.LeaveLocal(roomID, s.client)
	if s.gateway.LocalRoomCount(roomID) == 0 {
		if err := s.bus.Unsubscribe(ctx, domain.MessageChannel(roomID)); err != nil {
			s.log.Error().Err(err).Msg("Failed to unsubscribe room channel")
		}
	}

	users, err := s.dir.GetRoomUsers(ctx, roomID)
	if err != nil {
		return err
	}
	s.gateway.EmitToRoom(roomID, port.Event{Name: EventRoomLeft, Data: RoomLeftPayload{RoomID: roomID, UserID: userID}})
	s.gateway.EmitToRoom(roomID, port.Event{Name: EventRoomUsers, Data: RoomUsersPayload{RoomID: roomID, Users: userIDs(users)}})

	if s.currentRoomID == roomID {
		s.currentRoomID = ""
		s.currentUserID = ""
	}
	s.log.Info().Str("room_id", roomID.String()).Str("user_id", userID.String()).Msg("User left room")
	return nil
}

// HandleMessage publishes chat to the room's bus channel. Valid in any
// state and deliberately not gated on this session's own membership.
func (s *Session) HandleMessage(ctx context.Context, text string, roomID domain.RoomID, userID domain.UserID) error {
	payload, err := domain.ChatMessage{Message: text, RoomID: roomID, UserID: userID}.Encode()
	if err != nil {
		return err
	}
	return s.bus.Publish(ctx, domain.MessageChannel(roomID), payload)
}

func (s *Session) HandleOffer(ctx context.Context, roomID domain.RoomID, userID domain.UserID, offer domain.SessionDescription) error {
	return s.signals.AddOffer(ctx, roomID, offer, s.opts.SignalTTL)
}

// HandleAnswer stores the answer, reads it back, and forwards it directly
// to the offerer's socket.
func (s *Session) HandleAnswer(ctx context.Context, roomID domain.RoomID, offererSocketID domain.SocketID, userID domain.UserID, userSocketID domain.SocketID, answer domain.SessionDescription) error {
	if err := s.signals.AddAnswer(ctx, roomID, userID, answer, s.opts.SignalTTL); err != nil {
		return err
	}
	stored, err := s.signals.GetAnswer(ctx, roomID, userID)
	if err != nil {
		return err
	}
	s.gateway.EmitToSocket(offererSocketID, port.Event{
		Name: EventAnswerReceived,
		Data: AnswerReceivedPayload{
			RoomID:          roomID,
			OffererSocketID: offererSocketID,
			UserID:          userID,
			UserSocketID:    userSocketID,
			Answer:          stored,
		},
	})
	return nil
}

// HandleIceCandidate relays a candidate point-to-point. With PersistICE the
// candidate is appended to the pair's queue first and the whole queue is
// replayed, so a late joiner sees earlier candidates too.
func (s *Session) HandleIceCandidate(ctx context.Context, candidate domain.IceCandidate, roomID domain.RoomID, senderSocketID, receiverSocketID domain.SocketID) error {
	if !s.opts.PersistICE {
		s.gateway.EmitToSocket(receiverSocketID, port.Event{
			Name: EventIceCandidateReceived,
			Data: IceCandidateReceivedPayload{Candidate: candidate, SenderSocketID: senderSocketID},
		})
		return nil
	}

	if err := s.signals.AddIceCandidate(ctx, roomID, senderSocketID, receiverSocketID, candidate, s.opts.SignalTTL); err != nil {
		return err
	}
	candidates, err := s.signals.GetIceCandidates(ctx, roomID, senderSocketID, receiverSocketID)
	if err != nil {
		return err
	}
	for _, c := range candidates {
		s.gateway.EmitToSocket(receiverSocketID, port.Event{
			Name: EventIceCandidateReceived,
			Data: IceCandidateReceivedPayload{Candidate: c, SenderSocketID: senderSocketID},
		})
	}
	return nil
}

// HandleChangeOfferer relays a request for the designated peer to produce
// a fresh offer.
func (s *Session) HandleChangeOfferer(ctx context.Context, roomID domain.RoomID, newOffererID domain.UserID, newOffererSocketID domain.SocketID) error {
	s.gateway.EmitToSocket(newOffererSocketID, port.Event{
		Name: EventCreateOffer,
		Data: CreateOfferPayload{RoomID: roomID, UserID: newOffererID},
	})
	return nil
}

// HandleRoomData answers a synchronous membership query on the ack channel.
func (s *Session) HandleRoomData(ctx context.Context, roomID domain.RoomID, ack *int64) error {
	exists, err := s.dir.RoomExists(ctx, roomID)
	if err != nil {
		return err
	}

	var msg any = "Room does not exist"
	if exists {
		users, err := s.dir.GetRoomUsers(ctx, roomID)
		if err != nil {
			return err
		}
		msg = users
	}
	return s.client.Emit(port.Event{
		Name: EventRoomData,
		Ack:  ack,
		Data: RoomDataAck{Status: "ok", Message: msg},
	})
}

// HandleDisconnect is the terminal transition. What happens to the durable
// room state depends on the configured cleanup policy.
func (s *Session) HandleDisconnect(ctx context.Context) error {
	if s.currentRoomID == "" {
		return nil
	}
	switch s.opts.CleanupOnDisconnect {
	case CleanupImmediate:
		return s.leaveCurrentRoom(ctx)
	case CleanupDelayed:
		return s.dir.ExpireUser(ctx, s.currentRoomID, s.currentUserID, s.opts.SignalTTL)
	default:
		// Keys age out on their 24h TTL; a reconnecting user resumes where
		// it left off.
		return nil
	}
}

// leaveCurrentRoom runs the leave-room cleanup for whatever room the
// session currently occupies, without the membership precheck.
func (s *Session) leaveCurrentRoom(ctx context.Context) error {
	roomID, userID := s.currentRoomID, s.currentUserID
	s.currentRoomID = ""
	s.currentUserID = ""

	occupied, err := s.dir.RemoveUserFromRoom(ctx, roomID, userID)
	if err != nil {
		return err
	}

	offerer, err := s.signals.GetOfferer(ctx, roomID)
	if err != nil {
		return err
	}
	if offerer == s.client.SocketID() && occupied {
		if elected, err := s.signals.ChangeOfferer(ctx, roomID, s.dir); err == nil {
			s.gateway.EmitToRoom(roomID, port.Event{
				Name: EventOffererChanged,
				Data: OffererChangedPayload{
					RoomID:             roomID,
					NewOffererID:       elected.UserID,
					NewOffererSocketID: elected.SocketID,
				},
			})
		} else if !errors.Is(err, domain.ErrNoEligiblePeers) {
			return err
		}
	}

	s.gateway.LeaveLocal(roomID, s.client)
	if s.gateway.LocalRoomCount(roomID) == 0 {
		if err := s.bus.Unsubscribe(ctx, domain.MessageChannel(roomID)); err != nil {
			s.log.Error().Err(err).Msg("Failed to unsubscribe room channel")
		}
	}
	return nil
}

func userIDs(users []domain.UserRecord) []domain.UserID {
	ids := make([]domain.UserID, len(users))
	for i, u := range users {
		ids[i] = u.UserID
	}
	return ids
}
