package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Chat struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Kind          string    `gorm:"type:varchar(20);not null"`
	Name          string    `gorm:"type:varchar(100);not null;default:''"`
	OwnerId       uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
	LastMessageAt *time.Time
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

func (Chat) TableName() string {
	return "chats"
}

type Membership struct {
	ChatId   uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserId   uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Role     string     `gorm:"type:varchar(20);not null;default:'member'"`
	JoinedAt time.Time  `gorm:"autoCreateTime"`
	LeftAt   *time.Time `gorm:"index"`
}

func (Membership) TableName() string {
	return "chat_members"
}
