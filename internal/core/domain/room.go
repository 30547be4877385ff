package domain

import "time"

// RoomData is the room metadata hash. RoomSize is the declared capacity
// counter kept eventually consistent with the membership set; the
// membership-set cardinality is authoritative.
type RoomData struct {
	RoomName  string
	RoomSize  int
	IsActive  bool
	CreatedAt time.Time
}

// RoomUpdate carries a partial metadata update. Nil fields are left
// untouched; the update is a read-modify-write merge, not a delta patch.
type RoomUpdate struct {
	RoomName *string
	RoomSize *int
	IsActive *bool
}

// UserData is what a joining client declares about itself.
type UserData struct {
	SocketID       SocketID
	IsAudioEnabled bool
	IsVideoEnabled bool
	Avatar         string
}

// UserRecord is a membership record as read back from the store.
type UserRecord struct {
	UserID         UserID
	SocketID       SocketID
	IsAudioEnabled bool
	IsVideoEnabled bool
	Avatar         string
	JoinedAt       time.Time
}

// UserUpdate carries partial membership-record updates (mute/unmute,
// avatar change). Nil fields are left untouched.
type UserUpdate struct {
	SocketID       *SocketID
	IsAudioEnabled *bool
	IsVideoEnabled *bool
	Avatar         *string
}

// RoomSnapshot is the consolidated read used by diagnostics and by the
// session coordinator: it distinguishes "room does not exist" from "room
// exists but has no data" from a full snapshot, so callers branch instead
// of matching errors.
type RoomSnapshot struct {
	Exists   bool
	IsActive bool
	RoomID   RoomID
	RoomData *RoomData
	Users    []UserRecord
	Message  string
}
