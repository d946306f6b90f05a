package entity

import (
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeFile  MessageType = "file"
	MessageTypeVoice MessageType = "voice"
)

type MessageStatus string

const (
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
)

type Message struct {
	Id          uuid.UUID
	ChatId      uuid.UUID
	SenderId    uuid.UUID
	Content     string
	MessageType MessageType
	MediaURL    *string
	ReplyToId   *uuid.UUID
	IsEdited    bool
	IsDeleted   bool
	Status      MessageStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ReadMark records that a user has read up through a chat as of ReadAt.
// mark_chat_read is bulk per-chat, not per-message (see DESIGN.md).
type ReadMark struct {
	ChatId uuid.UUID
	UserId uuid.UUID
	ReadAt time.Time
}
