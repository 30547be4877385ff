package port

import (
	"context"
	"time"

	"github.com/duocall/duo/internal/core/domain"
)

// RoomDirectory owns room existence, metadata, membership and presence.
type RoomDirectory interface {
	RoomExists(ctx context.Context, roomID domain.RoomID) (bool, error)
	CreateRoom(ctx context.Context, roomID domain.RoomID, data domain.RoomData) error
	GetRoomData(ctx context.Context, roomID domain.RoomID) (*domain.RoomData, error)
	UpdateRoomData(ctx context.Context, roomID domain.RoomID, updates domain.RoomUpdate) error

	AddUserToRoom(ctx context.Context, roomID domain.RoomID, userID domain.UserID, data domain.UserData) error

	// TryAddUserToRoom is the capacity-safe join: the membership-set size
	// check and the SADD run atomically in the store, so two racing joins
	// cannot both pass the check. Returns false when the room is full.
	TryAddUserToRoom(ctx context.Context, roomID domain.RoomID, userID domain.UserID, data domain.UserData, capacity int) (bool, error)

	// RemoveUserFromRoom reports whether the room still has members after
	// the removal. The size is read before the deletes commit, so the
	// result is advisory under concurrent leaves.
	RemoveUserFromRoom(ctx context.Context, roomID domain.RoomID, userID domain.UserID) (bool, error)

	UpdateUserData(ctx context.Context, roomID domain.RoomID, userID domain.UserID, updates domain.UserUpdate) error
	ExpireUser(ctx context.Context, roomID domain.RoomID, userID domain.UserID, ttl time.Duration) error

	GetRoomUsers(ctx context.Context, roomID domain.RoomID) ([]domain.UserRecord, error)
	GetRoomSize(ctx context.Context, roomID domain.RoomID) (int, error)
	IsRoomEmpty(ctx context.Context, roomID domain.RoomID) (bool, error)
	IsUserInRoom(ctx context.Context, roomID domain.RoomID, userID domain.UserID) (bool, error)

	ExtractRoomData(ctx context.Context, roomID domain.RoomID) (domain.RoomSnapshot, error)
	ExtractMultipleRoomsData(ctx context.Context, roomIDs []domain.RoomID) ([]domain.RoomSnapshot, error)
	ExtractAllActiveRoomsData(ctx context.Context) ([]domain.RoomSnapshot, error)
}
