package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomKeyFormat(t *testing.T) {
	assert.Equal(t, RoomKey("conversation:c1"), ConversationRoom("c1"))
	assert.Equal(t, RoomKey("group:g1"), GroupRoom("g1"))
}

func TestNewRoomKey(t *testing.T) {
	key, err := NewRoomKey(RoomKindConversation, "c1")
	require.NoError(t, err)
	assert.Equal(t, ConversationRoom("c1"), key)

	key, err = NewRoomKey(RoomKindGroup, "g1")
	require.NoError(t, err)
	assert.Equal(t, GroupRoom("g1"), key)

	_, err = NewRoomKey(RoomKindGroup, "")
	assert.Error(t, err)

	_, err = NewRoomKey("broadcast", "x")
	assert.Error(t, err)
}

func TestRoomKeyParts(t *testing.T) {
	key := ConversationRoom("abc-123")
	assert.Equal(t, RoomKindConversation, key.Kind())
	assert.Equal(t, "abc-123", key.TargetID())

	// Ids containing colons keep everything after the first separator.
	key = GroupRoom("a:b")
	assert.Equal(t, RoomKindGroup, key.Kind())
	assert.Equal(t, "a:b", key.TargetID())

	assert.Equal(t, RoomKind(""), RoomKey("malformed").Kind())
}
