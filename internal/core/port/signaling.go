package port

import (
	"context"
	"time"

	"github.com/duocall/duo/internal/core/domain"
)

// SignalingStore owns the transient offer/answer/ICE records and the
// offerer pointer for each room.
type SignalingStore interface {
	AddOffer(ctx context.Context, roomID domain.RoomID, offer domain.SessionDescription, ttl time.Duration) error
	GetOffer(ctx context.Context, roomID domain.RoomID) (domain.SessionDescription, error)
	RemoveOffer(ctx context.Context, roomID domain.RoomID) error

	AddAnswer(ctx context.Context, roomID domain.RoomID, participantID domain.UserID, answer domain.SessionDescription, ttl time.Duration) error
	GetAnswer(ctx context.Context, roomID domain.RoomID, participantID domain.UserID) (domain.SessionDescription, error)
	RemoveAllAnswers(ctx context.Context, roomID domain.RoomID) error

	AddIceCandidate(ctx context.Context, roomID domain.RoomID, senderID, receiverID domain.SocketID, candidate domain.IceCandidate, ttl time.Duration) error
	GetIceCandidates(ctx context.Context, roomID domain.RoomID, senderID, receiverID domain.SocketID) ([]domain.IceCandidate, error)
	RemoveIceCandidates(ctx context.Context, roomID domain.RoomID, senderID, receiverID domain.SocketID) error
	RemovePeerIceCandidates(ctx context.Context, roomID domain.RoomID, peerID domain.SocketID) error
	RemoveRoomIceCandidates(ctx context.Context, roomID domain.RoomID) error

	GetOfferer(ctx context.Context, roomID domain.RoomID) (domain.SocketID, error)

	// ChangeOfferer elects a new offerer from the room's current membership,
	// wipes the room's offer, answers and ICE queues, then writes the new
	// offerer pointer. Negotiation restarts from scratch rather than
	// reconciling stale SDP against a new topology.
	ChangeOfferer(ctx context.Context, roomID domain.RoomID, dir RoomDirectory) (domain.UserRecord, error)
}
