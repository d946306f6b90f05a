package contract

import (
	"context"

	"chathub/internal/entity"

	"github.com/google/uuid"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	GetById(ctx context.Context, id uuid.UUID) (*entity.Message, error)
	RecentMessages(ctx context.Context, chatId uuid.UUID, limit int) ([]*entity.Message, error)
	MarkChatRead(ctx context.Context, chatId, userId uuid.UUID) error
	ReadMarkFor(ctx context.Context, chatId, userId uuid.UUID) (*entity.ReadMark, error)
}
