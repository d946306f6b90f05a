package mapper

import (
	"chathub/internal/entity"
	"chathub/internal/model"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

func (m *ChatMapper) ToEntity(c *model.Chat) *entity.Chat {
	if c == nil {
		return nil
	}
	return &entity.Chat{
		Id:            c.Id,
		Kind:          entity.ChatKind(c.Kind),
		Name:          c.Name,
		OwnerId:       c.OwnerId,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
		LastMessageAt: c.LastMessageAt,
	}
}

func (m *ChatMapper) ToModel(c *entity.Chat) *model.Chat {
	if c == nil {
		return nil
	}
	return &model.Chat{
		Id:            c.Id,
		Kind:          string(c.Kind),
		Name:          c.Name,
		OwnerId:       c.OwnerId,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
		LastMessageAt: c.LastMessageAt,
	}
}

func (m *ChatMapper) ToEntities(chats []*model.Chat) []*entity.Chat {
	entities := make([]*entity.Chat, len(chats))
	for i, c := range chats {
		entities[i] = m.ToEntity(c)
	}
	return entities
}

func (m *ChatMapper) MembershipToEntity(mb *model.Membership) *entity.Membership {
	if mb == nil {
		return nil
	}
	return &entity.Membership{
		ChatId:   mb.ChatId,
		UserId:   mb.UserId,
		Role:     entity.MemberRole(mb.Role),
		JoinedAt: mb.JoinedAt,
		LeftAt:   mb.LeftAt,
	}
}

func (m *ChatMapper) MembershipToModel(mb *entity.Membership) *model.Membership {
	if mb == nil {
		return nil
	}
	return &model.Membership{
		ChatId:   mb.ChatId,
		UserId:   mb.UserId,
		Role:     string(mb.Role),
		JoinedAt: mb.JoinedAt,
		LeftAt:   mb.LeftAt,
	}
}

func (m *ChatMapper) MembershipsToEntities(ms []*model.Membership) []*entity.Membership {
	entities := make([]*entity.Membership, len(ms))
	for i, mb := range ms {
		entities[i] = m.MembershipToEntity(mb)
	}
	return entities
}
