package hub

import (
	"context"
	"encoding/json"
	"time"

	"chathub/internal/entity"
	"chathub/pkg/events"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// dispatch decodes env's payload for its declared type and routes it to the
// matching intent handler. Unknown types and payloads that fail validation
// get an error frame back instead of being silently dropped.
func (h *Hub) dispatch(s *Session, env *Envelope) {
	ctx := context.Background()

	switch env.Type {
	case FrameSendMessage:
		h.handleSendMessage(ctx, s, env)
	case FrameReadMessage:
		h.handleReadMessage(ctx, s, env)
	case FrameReadChat:
		h.handleReadChat(ctx, s, env)
	case FrameTypingStart:
		h.handleTyping(ctx, s, env, true)
	case FrameTypingStop:
		h.handleTyping(ctx, s, env, false)
	case FrameSubscribeChat:
		h.handleSubscribe(ctx, s, env)
	case FrameUnsubscribeChat:
		h.handleUnsubscribe(ctx, s, env)
	default:
		s.sendError("unknown_type", "unknown message type")
	}
}

func decodePayload(raw json.RawMessage, dst interface{}) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}

func (h *Hub) handleSendMessage(ctx context.Context, s *Session, env *Envelope) {
	var p sendMessagePayload
	if err := decodePayload(env.Payload, &p); err != nil {
		s.sendError("invalid_payload", "failed to parse payload")
		return
	}

	chatId, ok := parseUUID(p.ChatID)
	if !ok {
		s.sendError("invalid_chat_id", "invalid chat id")
		return
	}

	isMember, err := h.chats.IsMember(ctx, chatId, s.userId)
	if err != nil || !isMember {
		s.sendError("not_member", "not a member of this chat")
		return
	}

	var replyToId *uuid.UUID
	if p.ReplyToID != nil {
		if id, ok := parseUUID(*p.ReplyToID); ok {
			replyToId = &id
		}
	}

	msgType := entity.MessageTypeText
	if p.MessageType != "" {
		msgType = entity.MessageType(p.MessageType)
	}

	if p.Content == "" && msgType == entity.MessageTypeText {
		s.sendError("invalid_payload", "content is required for text messages")
		return
	}

	msg := &entity.Message{
		ChatId:      chatId,
		SenderId:    s.userId,
		Content:     p.Content,
		MessageType: msgType,
		MediaURL:    p.MediaURL,
		ReplyToId:   replyToId,
		Status:      entity.MessageStatusSent,
	}

	if err := h.messages.Create(ctx, msg); err != nil {
		s.sendError("send_failed", "failed to persist message")
		return
	}
	_ = h.chats.TouchLastMessage(ctx, chatId)
	h.replayCache.Delete(chatId.String())

	senderName, senderAvatar := h.senderDisplay(ctx, s.userId)
	if senderName == "" {
		senderName = s.username
	}
	frame := encodeEnvelope(FrameMessage, messageFromEntity(msg, senderName, senderAvatar))
	s.enqueue(frame)
	h.broadcastToChat(chatId, frame, s.userId, true)

	if h.publisher != nil {
		if err := h.publisher.Publish(ctx, events.NewMessageCreated(msg.Id, chatId, s.userId, msg.Content, string(msg.MessageType))); err != nil {
			h.logger.Warn("Hub", "failed to publish message.created", map[string]interface{}{"error": err.Error()})
		}
	}
}

// handleReadMessage marks the message's chat as read up to now for the
// caller and, unlike read_chat, announces the read to every subscriber of
// the chat, the caller included.
func (h *Hub) handleReadMessage(ctx context.Context, s *Session, env *Envelope) {
	var p readMessagePayload
	if err := decodePayload(env.Payload, &p); err != nil {
		s.sendError("invalid_payload", "failed to parse payload")
		return
	}

	messageId, ok := parseUUID(p.MessageID)
	if !ok {
		s.sendError("invalid_message_id", "invalid message id")
		return
	}

	msg, err := h.messages.GetById(ctx, messageId)
	if err != nil || msg == nil {
		s.sendError("message_not_found", "message not found")
		return
	}

	if err := h.messages.MarkChatRead(ctx, msg.ChatId, s.userId); err != nil {
		s.sendError("read_failed", "failed to mark as read")
		return
	}

	h.broadcastToChat(msg.ChatId, encodeEnvelope(FrameMessageRead, messageReadPayload{
		MessageID: messageId.String(),
		UserID:    s.userId.String(),
		ReadAt:    time.Now(),
	}), s.userId, false)
}

// handleReadChat is the bulk counterpart to handleReadMessage: it moves the
// caller's read high-water mark forward but does not broadcast anything,
// since there's no single message_read event it corresponds to.
func (h *Hub) handleReadChat(ctx context.Context, s *Session, env *Envelope) {
	var p readChatPayload
	if err := decodePayload(env.Payload, &p); err != nil {
		s.sendError("invalid_payload", "failed to parse payload")
		return
	}

	chatId, ok := parseUUID(p.ChatID)
	if !ok {
		s.sendError("invalid_chat_id", "invalid chat id")
		return
	}

	_ = h.messages.MarkChatRead(ctx, chatId, s.userId)
}

func (h *Hub) handleTyping(ctx context.Context, s *Session, env *Envelope, isTyping bool) {
	var p typingPayload
	if err := decodePayload(env.Payload, &p); err != nil {
		s.sendError("invalid_payload", "failed to parse payload")
		return
	}

	chatId, ok := parseUUID(p.ChatID)
	if !ok {
		s.sendError("invalid_chat_id", "invalid chat id")
		return
	}

	s.setTyping(chatId, isTyping, h.cfg.TypingExpiry)

	h.broadcastToChat(chatId, encodeEnvelope(FrameTyping, typingStatusPayload{
		ChatID:   chatId.String(),
		UserID:   s.userId.String(),
		UserName: s.username,
		IsTyping: isTyping,
	}), s.userId, true)
}

func (h *Hub) handleSubscribe(ctx context.Context, s *Session, env *Envelope) {
	var p subscribePayload
	if err := decodePayload(env.Payload, &p); err != nil {
		s.sendError("invalid_payload", "failed to parse payload")
		return
	}

	chatId, ok := parseUUID(p.ChatID)
	if !ok {
		s.sendError("invalid_chat_id", "invalid chat id")
		return
	}

	isMember, err := h.chats.IsMember(ctx, chatId, s.userId)
	if err != nil || !isMember {
		s.sendError("subscribe_failed", "not a member of this chat")
		return
	}

	h.subscribeToChat(ctx, s, chatId)
}

func (h *Hub) handleUnsubscribe(ctx context.Context, s *Session, env *Envelope) {
	var p subscribePayload
	if err := decodePayload(env.Payload, &p); err != nil {
		s.sendError("invalid_payload", "failed to parse payload")
		return
	}

	chatId, ok := parseUUID(p.ChatID)
	if !ok {
		s.sendError("invalid_chat_id", "invalid chat id")
		return
	}

	h.unsubscribeFromChat(s, chatId)
}

// messageFromEntity builds the wire payload for m. senderName/senderAvatar
// come from the sender's user record, looked up by the caller rather than
// here, since every call site already has either a live Session or a batch
// of senders worth caching across.
func messageFromEntity(m *entity.Message, senderName string, senderAvatar *string) messagePayload {
	var replyTo *string
	if m.ReplyToId != nil {
		s := m.ReplyToId.String()
		replyTo = &s
	}
	return messagePayload{
		ID:           m.Id.String(),
		ChatID:       m.ChatId.String(),
		SenderID:     m.SenderId.String(),
		SenderName:   senderName,
		SenderAvatar: senderAvatar,
		Content:      m.Content,
		MessageType:  string(m.MessageType),
		MediaURL:     m.MediaURL,
		ReplyToID:    replyTo,
		IsEdited:     m.IsEdited,
		IsDeleted:    m.IsDeleted,
		Status:       string(m.Status),
		CreatedAt:    m.CreatedAt,
	}
}

// senderDisplay resolves the display name and avatar for userId, falling
// back to the bare username when no full name is on file.
func (h *Hub) senderDisplay(ctx context.Context, userId uuid.UUID) (string, *string) {
	u, err := h.users.GetById(ctx, userId)
	if err != nil || u == nil {
		return "", nil
	}
	name := u.FullName
	if name == "" {
		name = u.Username
	}
	return name, u.AvatarURL
}
