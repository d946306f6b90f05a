package events

import (
	"time"

	"github.com/google/uuid"
)

// NewMessageCreated builds the fire-and-forget domain event published after
// a message is durably persisted and fanned out to its chat's subscribers.
func NewMessageCreated(messageId, chatId, senderId uuid.UUID, content, messageType string) Event {
	return BaseEvent{
		Type: "message.created",
		Data: map[string]interface{}{
			"message_id":   messageId.String(),
			"chat_id":      chatId.String(),
			"sender_id":    senderId.String(),
			"content":      content,
			"message_type": messageType,
		},
		OccurredAt: time.Now(),
	}
}

// NewUserPresence builds the event published when a user's online status
// changes, for consumers outside the realtime hub (e.g. push notification
// fan-out, analytics).
func NewUserPresence(userId uuid.UUID, online bool) Event {
	return BaseEvent{
		Type: "user.presence",
		Data: map[string]interface{}{
			"user_id": userId.String(),
			"online":  online,
		},
		OccurredAt: time.Now(),
	}
}
