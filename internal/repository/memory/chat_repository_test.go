package memory

import (
	"context"
	"testing"
	"time"

	"chathub/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRepository_IsMemberAndMembersOf(t *testing.T) {
	repo := NewChatRepository().(*ChatRepository)
	chatId := uuid.New()
	alice, bob := uuid.New(), uuid.New()

	leftAt := time.Now()
	repo.Seed(&entity.Chat{Id: chatId, Kind: entity.ChatKindGroup},
		&entity.Membership{ChatId: chatId, UserId: alice, Role: entity.MemberRoleOwner},
		&entity.Membership{ChatId: chatId, UserId: bob, Role: entity.MemberRoleMember, LeftAt: &leftAt},
	)

	ctx := context.Background()

	isMember, err := repo.IsMember(ctx, chatId, alice)
	require.NoError(t, err)
	assert.True(t, isMember)

	isMember, err = repo.IsMember(ctx, chatId, bob)
	require.NoError(t, err)
	assert.False(t, isMember, "bob left the chat and should no longer count as a member")

	members, err := repo.MembersOf(ctx, chatId)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, alice, members[0].UserId)
}

func TestChatRepository_CreateMembershipAndTouchLastMessage(t *testing.T) {
	repo := NewChatRepository().(*ChatRepository)
	chatId := uuid.New()
	repo.Seed(&entity.Chat{Id: chatId, Kind: entity.ChatKindPrivate})
	ctx := context.Background()

	userId := uuid.New()
	require.NoError(t, repo.CreateMembership(ctx, &entity.Membership{ChatId: chatId, UserId: userId, Role: entity.MemberRoleMember}))

	isMember, err := repo.IsMember(ctx, chatId, userId)
	require.NoError(t, err)
	assert.True(t, isMember)

	require.NoError(t, repo.TouchLastMessage(ctx, chatId))
	chat, err := repo.GetById(ctx, chatId)
	require.NoError(t, err)
	assert.NotNil(t, chat.LastMessageAt)
}
