package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Client -> server event names. These are the wire contract shared with the
// web and mobile clients and must not change.
const (
	EventJoinConversation  = "join_conversation"
	EventLeaveConversation = "leave_conversation"
	EventJoinGroup         = "join_group"
	EventLeaveGroup        = "leave_group"
	EventTypingStart       = "typing_start"
	EventTypingStop        = "typing_stop"
)

// Server -> client event names.
const (
	EventNewMessage = "new_message"
	EventUserTyping = "user_typing"
)

// Envelope frames every websocket message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope wraps a payload for sending. Marshalling errors surface at
// the call site rather than being deferred to the write pump.
func NewEnvelope(event string, payload any) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	return &Envelope{Event: event, Data: data}, nil
}

// Encode serializes the envelope once so a fan-out writes the same frame
// to every recipient.
func (e *Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// ConversationRef is the payload of join_conversation / leave_conversation.
type ConversationRef struct {
	ConversationID string `json:"conversationId"`
}

// GroupRef is the payload of join_group / leave_group.
type GroupRef struct {
	GroupID string `json:"groupId"`
}

// TypingRef is the payload of typing_start / typing_stop. Exactly one of
// the two ids is expected.
type TypingRef struct {
	ConversationID string `json:"conversationId,omitempty"`
	GroupID        string `json:"groupId,omitempty"`
}

// Room resolves the typing target to a room key, conversation taking
// precedence as it did in the original clients.
func (t TypingRef) Room() (RoomKey, error) {
	if t.ConversationID != "" {
		return ConversationRoom(t.ConversationID), nil
	}
	if t.GroupID != "" {
		return GroupRoom(t.GroupID), nil
	}
	return "", fmt.Errorf("typing event carries neither conversationId nor groupId")
}

// UserTyping is the payload of the outbound user_typing event.
type UserTyping struct {
	ProfileID string `json:"profileId"`
	IsTyping  bool   `json:"isTyping"`
}

// Message is the serialized message shape the store persists and the
// new_message event carries.
type Message struct {
	ID              string          `json:"id"`
	ConversationID  *string         `json:"conversationId"`
	GroupID         *string         `json:"groupId"`
	SenderProfileID string          `json:"senderProfileId"`
	Content         string          `json:"content"`
	MessageType     string          `json:"messageType"`
	Status          string          `json:"status"`
	MediaURL        *string         `json:"mediaUrl"`
	ReplyToID       *string         `json:"replyToId"`
	IsEdited        bool            `json:"isEdited"`
	IsDeleted       bool            `json:"isDeleted"`
	Metadata        json.RawMessage `json:"metadata,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}
