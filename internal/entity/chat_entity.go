package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatKind string

const (
	ChatKindPrivate ChatKind = "private"
	ChatKindGroup   ChatKind = "group"
)

type Chat struct {
	Id            uuid.UUID
	Kind          ChatKind
	Name          string
	OwnerId       uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastMessageAt *time.Time
}

type MemberRole string

const (
	MemberRoleOwner  MemberRole = "owner"
	MemberRoleAdmin  MemberRole = "admin"
	MemberRoleMember MemberRole = "member"
)

type Membership struct {
	ChatId   uuid.UUID
	UserId   uuid.UUID
	Role     MemberRole
	JoinedAt time.Time
	LeftAt   *time.Time
}

func (m *Membership) IsActive() bool {
	return m.LeftAt == nil
}
