package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeEncode(t *testing.T) {
	env, err := NewEnvelope(EventUserTyping, UserTyping{ProfileID: "p1", IsTyping: true})
	require.NoError(t, err)

	frame, err := env.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"user_typing","data":{"profileId":"p1","isTyping":true}}`, string(frame))
}

func TestNewEnvelopeRejectsUnmarshalablePayload(t *testing.T) {
	_, err := NewEnvelope(EventNewMessage, make(chan int))
	assert.Error(t, err)
}

func TestTypingRefRoom(t *testing.T) {
	key, err := TypingRef{ConversationID: "c1"}.Room()
	require.NoError(t, err)
	assert.Equal(t, ConversationRoom("c1"), key)

	key, err = TypingRef{GroupID: "g1"}.Room()
	require.NoError(t, err)
	assert.Equal(t, GroupRoom("g1"), key)

	// Conversation wins when a client sends both ids.
	key, err = TypingRef{ConversationID: "c1", GroupID: "g1"}.Room()
	require.NoError(t, err)
	assert.Equal(t, ConversationRoom("c1"), key)

	_, err = TypingRef{}.Room()
	assert.Error(t, err)
}
