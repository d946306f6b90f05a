package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Message struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatId      uuid.UUID `gorm:"type:uuid;not null;index:idx_chat_created"`
	SenderId    uuid.UUID `gorm:"type:uuid;not null"`
	Content     string    `gorm:"type:text;not null"`
	MessageType string    `gorm:"type:varchar(20);not null;default:'text'"`
	MediaURL    *string   `gorm:"type:varchar(500)"`
	ReplyToId   *uuid.UUID
	IsEdited    bool           `gorm:"not null;default:false"`
	IsDeleted   bool           `gorm:"not null;default:false;index"`
	Status      string         `gorm:"type:varchar(20);not null;default:'sent'"`
	CreatedAt   time.Time      `gorm:"autoCreateTime;index:idx_chat_created"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (Message) TableName() string {
	return "messages"
}

// ReadMark is one row per (chat, user): the user's high-water mark for
// that chat, replaced (not appended) on every mark_chat_read call.
type ReadMark struct {
	ChatId uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId uuid.UUID `gorm:"type:uuid;primaryKey"`
	ReadAt time.Time `gorm:"not null"`
}

func (ReadMark) TableName() string {
	return "chat_read_marks"
}
