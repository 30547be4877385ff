package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/duocall/duo/internal/core/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Directory implements port.RoomDirectory on the shared store.
//
// The store has no native boolean type: every boolean field is written as
// "true"/"false" and decoded on every read. Timestamps are RFC3339 strings.
type Directory struct {
	rdb *redis.Client
}

func NewDirectory(s *Store) *Directory {
	return &Directory{rdb: s.rdb}
}

// tryAddUser checks room capacity and adds the user in a single script
// invocation, closing the check-then-act window between two racing joins.
// Capacity counts only members whose presence hash is still alive; a stale
// set entry (hash expired ahead of the set, e.g. delayed disconnect
// cleanup) is pruned rather than counted, so it cannot hold a slot.
// Returns 1 when the user is in the set afterwards, 0 when the room was at
// capacity.
var tryAddUser = redis.NewScript(`
if redis.call("SISMEMBER", KEYS[1], ARGV[1]) == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[3])
	return 1
end
local live = 0
for _, id in ipairs(redis.call("SMEMBERS", KEYS[1])) do
	if redis.call("EXISTS", ARGV[4] .. id) == 1 then
		live = live + 1
	else
		redis.call("SREM", KEYS[1], id)
	end
end
if live >= tonumber(ARGV[2]) then
	return 0
end
redis.call("SADD", KEYS[1], ARGV[1])
redis.call("EXPIRE", KEYS[1], ARGV[3])
return 1
`)

func (d *Directory) RoomExists(ctx context.Context, roomID domain.RoomID) (bool, error) {
	n, err := d.rdb.Exists(ctx, roomKey(roomID)).Result()
	if err != nil {
		return false, wrapStore(err, "room exists")
	}
	return n == 1, nil
}

func (d *Directory) CreateRoom(ctx context.Context, roomID domain.RoomID, data domain.RoomData) error {
	exists, err := d.RoomExists(ctx, roomID)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrRoomExists
	}

	createdAt := data.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	pipe := d.rdb.TxPipeline()
	pipe.HSet(ctx, roomKey(roomID), map[string]any{
		"roomName":  data.RoomName,
		"roomSize":  strconv.Itoa(data.RoomSize),
		"isActive":  strconv.FormatBool(data.IsActive),
		"createdAt": createdAt.Format(time.RFC3339),
	})
	pipe.SAdd(ctx, activeRoomsKey, roomID.String())
	pipe.Expire(ctx, roomKey(roomID), domain.RoomTTL)
	_, err = pipe.Exec(ctx)
	return wrapStore(err, "create room")
}

func (d *Directory) GetRoomData(ctx context.Context, roomID domain.RoomID) (*domain.RoomData, error) {
	fields, err := d.rdb.HGetAll(ctx, roomKey(roomID)).Result()
	if err != nil {
		return nil, wrapStore(err, "get room data")
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return decodeRoomData(fields), nil
}

func (d *Directory) UpdateRoomData(ctx context.Context, roomID domain.RoomID, updates domain.RoomUpdate) error {
	exists, err := d.RoomExists(ctx, roomID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrRoomNotFound
	}
	current, err := d.GetRoomData(ctx, roomID)
	if err != nil {
		return err
	}
	if current == nil {
		return domain.ErrRoomNotFound
	}

	merged := *current
	if updates.RoomName != nil {
		merged.RoomName = *updates.RoomName
	}
	if updates.RoomSize != nil {
		merged.RoomSize = *updates.RoomSize
	}
	if updates.IsActive != nil {
		merged.IsActive = *updates.IsActive
	}

	err = d.rdb.HSet(ctx, roomKey(roomID), map[string]any{
		"roomName": merged.RoomName,
		"roomSize": strconv.Itoa(merged.RoomSize),
		"isActive": strconv.FormatBool(merged.IsActive),
	}).Err()
	return wrapStore(err, "update room data")
}

func (d *Directory) AddUserToRoom(ctx context.Context, roomID domain.RoomID, userID domain.UserID, data domain.UserData) error {
	pipe := d.rdb.TxPipeline()
	pipe.SAdd(ctx, activeRoomsKey, roomID.String())
	pipe.HSet(ctx, userKey(roomID, userID), userFields(data))
	pipe.Expire(ctx, userKey(roomID, userID), domain.RoomTTL)
	pipe.SAdd(ctx, roomUsersKey(roomID), userID.String())
	pipe.Expire(ctx, roomUsersKey(roomID), domain.RoomTTL)
	_, err := pipe.Exec(ctx)
	return wrapStore(err, "add user to room")
}

func (d *Directory) TryAddUserToRoom(ctx context.Context, roomID domain.RoomID, userID domain.UserID, data domain.UserData, capacity int) (bool, error) {
	ok, err := tryAddUser.Run(ctx, d.rdb,
		[]string{roomUsersKey(roomID)},
		userID.String(), capacity, int(domain.RoomTTL.Seconds()), userKeyPrefix(roomID),
	).Int()
	if err != nil {
		return false, wrapStore(err, "try add user")
	}
	if ok == 0 {
		return false, nil
	}

	pipe := d.rdb.TxPipeline()
	pipe.SAdd(ctx, activeRoomsKey, roomID.String())
	pipe.HSet(ctx, userKey(roomID, userID), userFields(data))
	pipe.Expire(ctx, userKey(roomID, userID), domain.RoomTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, wrapStore(err, "try add user")
	}
	return true, nil
}

func (d *Directory) RemoveUserFromRoom(ctx context.Context, roomID domain.RoomID, userID domain.UserID) (bool, error) {
	// The remaining-member count is read before the deletes commit; under
	// concurrent leaves the result is advisory, not linearizable.
	size, err := d.rdb.SCard(ctx, roomUsersKey(roomID)).Result()
	if err != nil {
		return false, wrapStore(err, "remove user from room")
	}

	pipe := d.rdb.TxPipeline()
	pipe.Del(ctx, userKey(roomID, userID))
	pipe.SRem(ctx, roomUsersKey(roomID), userID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return false, wrapStore(err, "remove user from room")
	}

	remaining := int(size) - 1
	if remaining < 1 {
		return false, nil
	}
	if err := d.UpdateRoomData(ctx, roomID, domain.RoomUpdate{RoomSize: &remaining}); err != nil {
		return false, err
	}
	return true, nil
}

func (d *Directory) UpdateUserData(ctx context.Context, roomID domain.RoomID, userID domain.UserID, updates domain.UserUpdate) error {
	fields := map[string]any{}
	if updates.SocketID != nil {
		fields["socketId"] = updates.SocketID.String()
	}
	if updates.IsAudioEnabled != nil {
		fields["isAudioEnabled"] = strconv.FormatBool(*updates.IsAudioEnabled)
	}
	if updates.IsVideoEnabled != nil {
		fields["isVideoEnabled"] = strconv.FormatBool(*updates.IsVideoEnabled)
	}
	if updates.Avatar != nil {
		fields["avatar"] = *updates.Avatar
	}
	if len(fields) == 0 {
		return nil
	}
	err := d.rdb.HSet(ctx, userKey(roomID, userID), fields).Err()
	return wrapStore(err, "update user data")
}

func (d *Directory) ExpireUser(ctx context.Context, roomID domain.RoomID, userID domain.UserID, ttl time.Duration) error {
	err := d.rdb.Expire(ctx, userKey(roomID, userID), ttl).Err()
	return wrapStore(err, "expire user")
}

func (d *Directory) GetRoomUsers(ctx context.Context, roomID domain.RoomID) ([]domain.UserRecord, error) {
	userIDs, err := d.rdb.SMembers(ctx, roomUsersKey(roomID)).Result()
	if err != nil {
		return nil, wrapStore(err, "get room users")
	}

	users := make([]domain.UserRecord, 0, len(userIDs))
	for _, id := range userIDs {
		fields, err := d.rdb.HGetAll(ctx, userKey(roomID, domain.UserID(id))).Result()
		if err != nil {
			return nil, wrapStore(err, "get room users")
		}
		if len(fields) == 0 {
			// Presence hash expired ahead of the membership set entry.
			continue
		}
		users = append(users, decodeUserRecord(domain.UserID(id), fields))
	}
	return users, nil
}

func (d *Directory) GetRoomSize(ctx context.Context, roomID domain.RoomID) (int, error) {
	n, err := d.rdb.SCard(ctx, roomUsersKey(roomID)).Result()
	if err != nil {
		return 0, wrapStore(err, "get room size")
	}
	return int(n), nil
}

func (d *Directory) IsRoomEmpty(ctx context.Context, roomID domain.RoomID) (bool, error) {
	n, err := d.GetRoomSize(ctx, roomID)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

func (d *Directory) IsUserInRoom(ctx context.Context, roomID domain.RoomID, userID domain.UserID) (bool, error) {
	n, err := d.rdb.Exists(ctx, userKey(roomID, userID)).Result()
	if err != nil {
		return false, wrapStore(err, "is user in room")
	}
	return n == 1, nil
}

func (d *Directory) ExtractRoomData(ctx context.Context, roomID domain.RoomID) (domain.RoomSnapshot, error) {
	exists, err := d.RoomExists(ctx, roomID)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}
	if !exists {
		return domain.RoomSnapshot{
			RoomID:  roomID,
			Users:   []domain.UserRecord{},
			Message: "Room does not exist",
		}, nil
	}

	data, err := d.GetRoomData(ctx, roomID)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}
	if data == nil {
		return domain.RoomSnapshot{
			Exists:  true,
			RoomID:  roomID,
			Users:   []domain.UserRecord{},
			Message: "Room exists but has no data",
		}, nil
	}

	users, err := d.GetRoomUsers(ctx, roomID)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}
	return domain.RoomSnapshot{
		Exists:   true,
		IsActive: true,
		RoomID:   roomID,
		RoomData: data,
		Users:    users,
	}, nil
}

func (d *Directory) ExtractMultipleRoomsData(ctx context.Context, roomIDs []domain.RoomID) ([]domain.RoomSnapshot, error) {
	snapshots := make([]domain.RoomSnapshot, 0, len(roomIDs))
	for _, roomID := range roomIDs {
		snap, err := d.ExtractRoomData(ctx, roomID)
		if err != nil {
			log.Warn().Err(err).Str("room_id", roomID.String()).Msg("Skipping room in batch extract")
			continue
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

func (d *Directory) ExtractAllActiveRoomsData(ctx context.Context) ([]domain.RoomSnapshot, error) {
	ids, err := d.rdb.SMembers(ctx, activeRoomsKey).Result()
	if err != nil {
		return nil, wrapStore(err, "extract all active rooms")
	}
	roomIDs := make([]domain.RoomID, len(ids))
	for i, id := range ids {
		roomIDs[i] = domain.RoomID(id)
	}
	return d.ExtractMultipleRoomsData(ctx, roomIDs)
}

func userFields(data domain.UserData) map[string]any {
	return map[string]any{
		"socketId":       data.SocketID.String(),
		"isAudioEnabled": strconv.FormatBool(data.IsAudioEnabled),
		"isVideoEnabled": strconv.FormatBool(data.IsVideoEnabled),
		"avatar":         data.Avatar,
		"joinedAt":       time.Now().UTC().Format(time.RFC3339),
	}
}

func decodeRoomData(fields map[string]string) *domain.RoomData {
	size, _ := strconv.Atoi(fields["roomSize"])
	createdAt, _ := time.Parse(time.RFC3339, fields["createdAt"])
	return &domain.RoomData{
		RoomName:  fields["roomName"],
		RoomSize:  size,
		IsActive:  fields["isActive"] == "true",
		CreatedAt: createdAt,
	}
}

func decodeUserRecord(userID domain.UserID, fields map[string]string) domain.UserRecord {
	joinedAt, _ := time.Parse(time.RFC3339, fields["joinedAt"])
	return domain.UserRecord{
		UserID:         userID,
		SocketID:       domain.SocketID(fields["socketId"]),
		IsAudioEnabled: fields["isAudioEnabled"] == "true",
		IsVideoEnabled: fields["isVideoEnabled"] == "true",
		Avatar:         fields["avatar"],
		JoinedAt:       joinedAt,
	}
}
