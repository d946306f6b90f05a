package contract

import (
	"context"

	"chathub/internal/entity"

	"github.com/google/uuid"
)

type UserRepository interface {
	GetById(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	SetOnline(ctx context.Context, id uuid.UUID, online bool) error
}
