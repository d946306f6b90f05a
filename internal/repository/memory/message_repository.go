package memory

import (
	"context"
	"sync"
	"time"

	"chathub/internal/entity"
	"chathub/internal/repository/contract"

	"github.com/google/uuid"
)

type MessageRepository struct {
	mu        sync.RWMutex
	byId      map[uuid.UUID]*entity.Message
	byChat    map[uuid.UUID][]uuid.UUID // chatId -> message ids, insertion order
	readMarks map[uuid.UUID]map[uuid.UUID]*entity.ReadMark
}

func NewMessageRepository() contract.MessageRepository {
	return &MessageRepository{
		byId:      make(map[uuid.UUID]*entity.Message),
		byChat:    make(map[uuid.UUID][]uuid.UUID),
		readMarks: make(map[uuid.UUID]map[uuid.UUID]*entity.ReadMark),
	}
}

func (r *MessageRepository) Create(ctx context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if message.Id == uuid.Nil {
		message.Id = uuid.New()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	message.UpdatedAt = message.CreatedAt
	cp := *message
	r.byId[message.Id] = &cp
	r.byChat[message.ChatId] = append(r.byChat[message.ChatId], message.Id)
	return nil
}

func (r *MessageRepository) GetById(ctx context.Context, id uuid.UUID) (*entity.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byId[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r *MessageRepository) RecentMessages(ctx context.Context, chatId uuid.UUID, limit int) ([]*entity.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byChat[chatId]
	start := 0
	if len(ids) > limit {
		start = len(ids) - limit
	}
	out := make([]*entity.Message, 0, len(ids)-start)
	for _, id := range ids[start:] {
		if m, ok := r.byId[id]; ok && !m.IsDeleted {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MessageRepository) MarkChatRead(ctx context.Context, chatId, userId uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.readMarks[chatId]; !ok {
		r.readMarks[chatId] = make(map[uuid.UUID]*entity.ReadMark)
	}
	r.readMarks[chatId][userId] = &entity.ReadMark{ChatId: chatId, UserId: userId, ReadAt: time.Now()}
	return nil
}

func (r *MessageRepository) ReadMarkFor(ctx context.Context, chatId, userId uuid.UUID) (*entity.ReadMark, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	marks, ok := r.readMarks[chatId]
	if !ok {
		return nil, nil
	}
	m, ok := marks[userId]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}
