package pubsub

import (
	"fmt"
	"strconv"
	"strings"
)

const PresenceTopic = "presence"

func RoomTopic(roomID int64) string {
	return fmt.Sprintf("room:%d", roomID)
}

func UserTopic(userID int64) string {
	return fmt.Sprintf("user:%d:notifications", userID)
}

// ParseRoomTopic returns the room id of a "room:{id}" topic.
func ParseRoomTopic(topic string) (int64, bool) {
	rest, ok := strings.CutPrefix(topic, "room:")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ParseUserTopic returns the user id of a "user:{id}:notifications" topic.
func ParseUserTopic(topic string) (int64, bool) {
	rest, ok := strings.CutPrefix(topic, "user:")
	if !ok {
		return 0, false
	}
	rest, ok = strings.CutSuffix(rest, ":notifications")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
