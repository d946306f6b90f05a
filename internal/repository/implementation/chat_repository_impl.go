package implementation

import (
	"context"
	"errors"
	"time"

	"chathub/internal/entity"
	"chathub/internal/mapper"
	"chathub/internal/model"
	"chathub/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatRepository(db *gorm.DB) contract.ChatRepository {
	return &ChatRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatRepositoryImpl) GetById(ctx context.Context, id uuid.UUID) (*entity.Chat, error) {
	var m model.Chat
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ChatRepositoryImpl) IsMember(ctx context.Context, chatId, userId uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Membership{}).
		Where("chat_id = ? AND user_id = ? AND left_at IS NULL", chatId, userId).
		Count(&count).Error
	return count > 0, err
}

func (r *ChatRepositoryImpl) MembersOf(ctx context.Context, chatId uuid.UUID) ([]*entity.Membership, error) {
	var models []*model.Membership
	if err := r.db.WithContext(ctx).
		Where("chat_id = ? AND left_at IS NULL", chatId).
		Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.MembershipsToEntities(models), nil
}

func (r *ChatRepositoryImpl) CreateMembership(ctx context.Context, membership *entity.Membership) error {
	m := r.mapper.MembershipToModel(membership)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*membership = *r.mapper.MembershipToEntity(m)
	return nil
}

func (r *ChatRepositoryImpl) TouchLastMessage(ctx context.Context, chatId uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Chat{}).
		Where("id = ?", chatId).
		Update("last_message_at", time.Now()).Error
}
