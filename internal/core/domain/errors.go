package domain

import "errors"

var (
	// ErrRoomExists is returned by CreateRoom when the room key is already present.
	ErrRoomExists = errors.New("room already exists")

	// ErrRoomNotFound is returned when an operation targets an absent room.
	ErrRoomNotFound = errors.New("room does not exist")

	// ErrNotInRoom is returned when a user acts on a room they are not a member of.
	ErrNotInRoom = errors.New("user is not in this room")

	// ErrRoomFull is returned when a join would exceed room capacity.
	ErrRoomFull = errors.New("room is full")

	// ErrNoEligiblePeers is returned by offerer election when the room has no members.
	ErrNoEligiblePeers = errors.New("no eligible peers for offerer election")

	// ErrStoreUnavailable wraps transport-level failures against the shared store.
	ErrStoreUnavailable = errors.New("shared state store unavailable")
)
