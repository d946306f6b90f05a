package contract

import (
	"context"

	"chathub/internal/entity"

	"github.com/google/uuid"
)

type ChatRepository interface {
	GetById(ctx context.Context, id uuid.UUID) (*entity.Chat, error)
	IsMember(ctx context.Context, chatId, userId uuid.UUID) (bool, error)
	MembersOf(ctx context.Context, chatId uuid.UUID) ([]*entity.Membership, error)
	CreateMembership(ctx context.Context, membership *entity.Membership) error
	TouchLastMessage(ctx context.Context, chatId uuid.UUID) error
}
