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
	"gorm.io/gorm/clause"
)

type MessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.MessageMapper
}

func NewMessageRepository(db *gorm.DB) contract.MessageRepository {
	return &MessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewMessageMapper(),
	}
}

func (r *MessageRepositoryImpl) Create(ctx context.Context, message *entity.Message) error {
	m := r.mapper.ToModel(message)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*message = *r.mapper.ToEntity(m)
	return nil
}

func (r *MessageRepositoryImpl) GetById(ctx context.Context, id uuid.UUID) (*entity.Message, error) {
	var m model.Message
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

// RecentMessages returns the last `limit` messages in a chat, oldest first,
// the shape a freshly subscribed session replays.
func (r *MessageRepositoryImpl) RecentMessages(ctx context.Context, chatId uuid.UUID, limit int) ([]*entity.Message, error) {
	var models []*model.Message
	if err := r.db.WithContext(ctx).
		Where("chat_id = ? AND is_deleted = false", chatId).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(models)-1; i < j; i, j = i+1, j-1 {
		models[i], models[j] = models[j], models[i]
	}
	return r.mapper.ToEntities(models), nil
}

// MarkChatRead replaces the caller's read high-water mark for chatId rather
// than appending a row per message.
func (r *MessageRepositoryImpl) MarkChatRead(ctx context.Context, chatId, userId uuid.UUID) error {
	mark := &model.ReadMark{ChatId: chatId, UserId: userId, ReadAt: time.Now()}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chat_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"read_at"}),
		}).
		Create(mark).Error
}

func (r *MessageRepositoryImpl) ReadMarkFor(ctx context.Context, chatId, userId uuid.UUID) (*entity.ReadMark, error) {
	var m model.ReadMark
	if err := r.db.WithContext(ctx).First(&m, "chat_id = ? AND user_id = ?", chatId, userId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ReadMarkToEntity(&m), nil
}
