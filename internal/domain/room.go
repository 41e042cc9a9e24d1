package domain

import (
	"fmt"
	"strings"
)

// RoomKind distinguishes the two conversation shapes a room can address.
type RoomKind string

const (
	RoomKindConversation RoomKind = "conversation"
	RoomKindGroup        RoomKind = "group"
)

// RoomKey is the string form a room is addressed by on the wire and in the
// fan-out index: "conversation:<id>" or "group:<id>".
type RoomKey string

// ConversationRoom returns the room key for a 1:1 conversation.
func ConversationRoom(conversationID string) RoomKey {
	return RoomKey(string(RoomKindConversation) + ":" + conversationID)
}

// GroupRoom returns the room key for a group chat.
func GroupRoom(groupID string) RoomKey {
	return RoomKey(string(RoomKindGroup) + ":" + groupID)
}

// NewRoomKey builds a room key from its parts, validating the kind.
func NewRoomKey(kind RoomKind, targetID string) (RoomKey, error) {
	if targetID == "" {
		return "", fmt.Errorf("room target id is required")
	}
	switch kind {
	case RoomKindConversation:
		return ConversationRoom(targetID), nil
	case RoomKindGroup:
		return GroupRoom(targetID), nil
	default:
		return "", fmt.Errorf("unknown room kind %q", kind)
	}
}

// Kind reports the room's kind, or an empty string for a malformed key.
func (k RoomKey) Kind() RoomKind {
	kind, _, ok := strings.Cut(string(k), ":")
	if !ok {
		return ""
	}
	return RoomKind(kind)
}

// TargetID returns the conversation or group id part of the key.
func (k RoomKey) TargetID() string {
	_, id, _ := strings.Cut(string(k), ":")
	return id
}
