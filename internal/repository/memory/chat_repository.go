package memory

import (
	"context"
	"sync"
	"time"

	"chathub/internal/entity"
	"chathub/internal/repository/contract"

	"github.com/google/uuid"
)

type ChatRepository struct {
	mu          sync.RWMutex
	chats       map[uuid.UUID]*entity.Chat
	memberships map[uuid.UUID]map[uuid.UUID]*entity.Membership // chatId -> userId -> membership
}

func NewChatRepository() contract.ChatRepository {
	return &ChatRepository{
		chats:       make(map[uuid.UUID]*entity.Chat),
		memberships: make(map[uuid.UUID]map[uuid.UUID]*entity.Membership),
	}
}

func (r *ChatRepository) Seed(c *entity.Chat, members ...*entity.Membership) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.chats[c.Id] = &cp
	if _, ok := r.memberships[c.Id]; !ok {
		r.memberships[c.Id] = make(map[uuid.UUID]*entity.Membership)
	}
	for _, m := range members {
		mc := *m
		r.memberships[c.Id][m.UserId] = &mc
	}
}

func (r *ChatRepository) GetById(ctx context.Context, id uuid.UUID) (*entity.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.chats[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *ChatRepository) IsMember(ctx context.Context, chatId, userId uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members, ok := r.memberships[chatId]
	if !ok {
		return false, nil
	}
	m, ok := members[userId]
	return ok && m.IsActive(), nil
}

func (r *ChatRepository) MembersOf(ctx context.Context, chatId uuid.UUID) ([]*entity.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := r.memberships[chatId]
	out := make([]*entity.Membership, 0, len(members))
	for _, m := range members {
		if m.IsActive() {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *ChatRepository) CreateMembership(ctx context.Context, membership *entity.Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.memberships[membership.ChatId]; !ok {
		r.memberships[membership.ChatId] = make(map[uuid.UUID]*entity.Membership)
	}
	cp := *membership
	r.memberships[membership.ChatId][membership.UserId] = &cp
	return nil
}

func (r *ChatRepository) TouchLastMessage(ctx context.Context, chatId uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.chats[chatId]; ok {
		now := time.Now()
		c.LastMessageAt = &now
	}
	return nil
}
