package mapper

import (
	"chathub/internal/entity"
	"chathub/internal/model"
)

type MessageMapper struct{}

func NewMessageMapper() *MessageMapper {
	return &MessageMapper{}
}

func (m *MessageMapper) ToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}
	return &entity.Message{
		Id:          msg.Id,
		ChatId:      msg.ChatId,
		SenderId:    msg.SenderId,
		Content:     msg.Content,
		MessageType: entity.MessageType(msg.MessageType),
		MediaURL:    msg.MediaURL,
		ReplyToId:   msg.ReplyToId,
		IsEdited:    msg.IsEdited,
		IsDeleted:   msg.IsDeleted,
		Status:      entity.MessageStatus(msg.Status),
		CreatedAt:   msg.CreatedAt,
		UpdatedAt:   msg.UpdatedAt,
	}
}

func (m *MessageMapper) ToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}
	return &model.Message{
		Id:          msg.Id,
		ChatId:      msg.ChatId,
		SenderId:    msg.SenderId,
		Content:     msg.Content,
		MessageType: string(msg.MessageType),
		MediaURL:    msg.MediaURL,
		ReplyToId:   msg.ReplyToId,
		IsEdited:    msg.IsEdited,
		IsDeleted:   msg.IsDeleted,
		Status:      string(msg.Status),
		CreatedAt:   msg.CreatedAt,
		UpdatedAt:   msg.UpdatedAt,
	}
}

func (m *MessageMapper) ToEntities(messages []*model.Message) []*entity.Message {
	entities := make([]*entity.Message, len(messages))
	for i, msg := range messages {
		entities[i] = m.ToEntity(msg)
	}
	return entities
}

func (m *MessageMapper) ReadMarkToEntity(rm *model.ReadMark) *entity.ReadMark {
	if rm == nil {
		return nil
	}
	return &entity.ReadMark{
		ChatId: rm.ChatId,
		UserId: rm.UserId,
		ReadAt: rm.ReadAt,
	}
}

func (m *MessageMapper) ReadMarkToModel(rm *entity.ReadMark) *model.ReadMark {
	if rm == nil {
		return nil
	}
	return &model.ReadMark{
		ChatId: rm.ChatId,
		UserId: rm.UserId,
		ReadAt: rm.ReadAt,
	}
}
