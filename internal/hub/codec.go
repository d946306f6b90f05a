package hub

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// FrameType names the wire-level intent or event carried by an Envelope.
type FrameType string

const (
	// Client-originated intents.
	FrameSendMessage     FrameType = "send_message"
	FrameReadMessage     FrameType = "read_message"
	FrameReadChat        FrameType = "read_chat"
	FrameTypingStart     FrameType = "typing_start"
	FrameTypingStop      FrameType = "typing_stop"
	FrameSubscribeChat   FrameType = "subscribe_chat"
	FrameUnsubscribeChat FrameType = "unsubscribe_chat"

	// Server-originated events.
	FrameMessage     FrameType = "message"
	FrameMessageRead FrameType = "message_read"
	FrameTyping      FrameType = "typing"
	FrameUserOnline  FrameType = "user_online"
	FrameUserOffline FrameType = "user_offline"
	FrameError       FrameType = "error"
)

// Envelope is the outer frame every message on the socket is wrapped in.
// Payload is decoded in a second pass once Type is known — the two-stage
// decode keeps the hub from needing one struct with every possible field.
type Envelope struct {
	Type      FrameType       `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

func decodeEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

func encodeEnvelope(frameType FrameType, payload interface{}) []byte {
	data, _ := json.Marshal(payload)
	env := Envelope{
		Type:      frameType,
		Payload:   data,
		Timestamp: time.Now(),
	}
	out, _ := json.Marshal(env)
	return out
}

// sendMessagePayload.Content is intentionally not tagged validate:"required":
// a non-text message (image/file/voice) can be media-only with no caption.
// handleSendMessage rejects empty content itself, but only when the message
// is (or defaults to) text.
type sendMessagePayload struct {
	ChatID      string  `json:"chat_id" validate:"required,uuid"`
	Content     string  `json:"content"`
	MessageType string  `json:"message_type,omitempty"`
	MediaURL    *string `json:"media_url,omitempty"`
	ReplyToID   *string `json:"reply_to_id,omitempty"`
}

type readMessagePayload struct {
	MessageID string `json:"message_id" validate:"required,uuid"`
}

type readChatPayload struct {
	ChatID string `json:"chat_id" validate:"required,uuid"`
}

type typingPayload struct {
	ChatID string `json:"chat_id" validate:"required,uuid"`
}

type subscribePayload struct {
	ChatID string `json:"chat_id" validate:"required,uuid"`
}

type messagePayload struct {
	ID           string    `json:"id"`
	ChatID       string    `json:"chat_id"`
	SenderID     string    `json:"sender_id"`
	SenderName   string    `json:"sender_name"`
	SenderAvatar *string   `json:"sender_avatar,omitempty"`
	Content      string    `json:"content"`
	MessageType  string    `json:"message_type"`
	MediaURL     *string   `json:"media_url,omitempty"`
	ReplyToID    *string   `json:"reply_to_id,omitempty"`
	IsEdited     bool      `json:"is_edited"`
	IsDeleted    bool      `json:"is_deleted"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

type messageReadPayload struct {
	MessageID string    `json:"message_id"`
	UserID    string    `json:"user_id"`
	ReadAt    time.Time `json:"read_at"`
}

type typingStatusPayload struct {
	ChatID   string `json:"chat_id"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	IsTyping bool   `json:"is_typing"`
}

type userStatusPayload struct {
	UserID   string     `json:"user_id"`
	Username string     `json:"username"`
	IsOnline bool       `json:"is_online"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func parseUUID(s string) (uuid.UUID, bool) {
	id, err := uuid.Parse(s)
	return id, err == nil
}
