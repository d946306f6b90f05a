package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username   string    `gorm:"type:varchar(64);uniqueIndex;not null"`
	FullName   string    `gorm:"type:varchar(255);not null"`
	AvatarURL  *string   `gorm:"type:text"`
	IsOnline   bool      `gorm:"not null;default:false"`
	LastSeenAt *time.Time
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
