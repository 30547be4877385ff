package redis

import (
	"fmt"

	"github.com/duocall/duo/internal/core/domain"
)

const activeRoomsKey = "activeRooms"

func roomKey(roomID domain.RoomID) string {
	return fmt.Sprintf("room:%s", roomID)
}

func roomUsersKey(roomID domain.RoomID) string {
	return fmt.Sprintf("room:%s:users", roomID)
}

func userKey(roomID domain.RoomID, userID domain.UserID) string {
	return fmt.Sprintf("user:%s:%s", roomID, userID)
}

func userKeyPrefix(roomID domain.RoomID) string {
	return fmt.Sprintf("user:%s:", roomID)
}

func offerKey(roomID domain.RoomID) string {
	return fmt.Sprintf("offer:%s", roomID)
}

func answersKey(roomID domain.RoomID) string {
	return fmt.Sprintf("answers:%s", roomID)
}

func iceKey(roomID domain.RoomID, senderID, receiverID domain.SocketID) string {
	return fmt.Sprintf("ice:%s:%s:%s", roomID, senderID, receiverID)
}

func offererKey(roomID domain.RoomID) string {
	return fmt.Sprintf("offerer:%s", roomID)
}
