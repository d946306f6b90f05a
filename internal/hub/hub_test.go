package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"chathub/internal/config"
	"chathub/internal/entity"
	"chathub/internal/repository/contract"
	"chathub/internal/repository/memory"
	"chathub/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopLogger struct{}

func (noopLogger) Debug(string, string, map[string]interface{}) {}
func (noopLogger) Info(string, string, map[string]interface{})  {}
func (noopLogger) Warn(string, string, map[string]interface{})  {}
func (noopLogger) Error(string, string, map[string]interface{}) {}
func (noopLogger) Sync() error                                  { return nil }

type fakePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *fakePublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func testConfig() config.HubConfig {
	return config.HubConfig{
		OutboundQueueSize: 4,
		ReplayWindow:      50,
		WriteWait:         time.Second,
		PongWait:          time.Second,
		PingPeriod:        900 * time.Millisecond,
		MaxMessageBytes:   1 << 20,
		TypingExpiry:      50 * time.Millisecond,
	}
}

type testEnv struct {
	hub      *Hub
	users    contract.UserRepository
	chats    contract.ChatRepository
	messages contract.MessageRepository
	pub      *fakePublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	users := memory.NewUserRepository()
	chats := memory.NewChatRepository()
	messages := memory.NewMessageRepository()
	pub := &fakePublisher{}

	h := New(testConfig(), users, chats, messages, pub, nil, noopLogger{})

	// Run's select loop is needed here to apply the jobs that
	// broadcastExcept/broadcastToChat queue and to drain the unregister
	// channel that Hub.evict feeds asynchronously; tests call registerSession
	// and the intent handlers directly rather than going through h.register.
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)

	return &testEnv{hub: h, users: users, chats: chats, messages: messages, pub: pub}
}

func drain(s *Session) [][]byte {
	var out [][]byte
	for {
		select {
		case d := <-s.send:
			out = append(out, d)
		default:
			return out
		}
	}
}

func TestRegisterSessionEvictsPriorSessionForSameUser(t *testing.T) {
	env := newTestEnv(t)
	userId := uuid.New()

	first := newSession(env.hub, nil, userId, "alice")
	second := newSession(env.hub, nil, userId, "alice")

	env.hub.registerSession(first)
	env.hub.registerSession(second)

	_, firstStillOpen := <-first.send
	assert.False(t, firstStillOpen, "the evicted session's send channel should be closed")

	assert.Same(t, second, env.hub.sessionsByUser[userId])
}

func TestUnregisterSessionIgnoresStaleSession(t *testing.T) {
	env := newTestEnv(t)
	userId := uuid.New()

	first := newSession(env.hub, nil, userId, "alice")
	second := newSession(env.hub, nil, userId, "alice")

	env.hub.registerSession(first)
	env.hub.registerSession(second)

	// first was already evicted by second's registration; unregistering it
	// again must not clobber second's entry in sessionsByUser.
	env.hub.unregisterSession(first)
	assert.Same(t, second, env.hub.sessionsByUser[userId])
}

func TestBroadcastToChatExcludesAuthor(t *testing.T) {
	env := newTestEnv(t)
	chatId := uuid.New()
	author, other := uuid.New(), uuid.New()

	authorSession := newSession(env.hub, nil, author, "author")
	otherSession := newSession(env.hub, nil, other, "other")
	env.hub.registerSession(authorSession)
	env.hub.registerSession(otherSession)
	drain(authorSession)
	drain(otherSession)

	env.hub.subscribersByChat[chatId] = map[uuid.UUID]*Session{
		author: authorSession,
		other:  otherSession,
	}

	env.hub.broadcastToChat(chatId, []byte("frame"), author, true)

	require.Eventually(t, func() bool { return len(otherSession.send) == 1 }, time.Second, 5*time.Millisecond,
		"broadcast is queued on the hub loop and applied asynchronously by Run")

	assert.Empty(t, drain(authorSession), "author should not receive its own broadcast frame")
	assert.Len(t, drain(otherSession), 1)
}

func TestBroadcastToChatIncludesAuthorWhenNotExcluded(t *testing.T) {
	env := newTestEnv(t)
	chatId := uuid.New()
	author := uuid.New()

	authorSession := newSession(env.hub, nil, author, "author")
	env.hub.registerSession(authorSession)
	env.hub.subscribersByChat[chatId] = map[uuid.UUID]*Session{author: authorSession}

	env.hub.broadcastToChat(chatId, []byte("frame"), author, false)

	require.Eventually(t, func() bool { return len(authorSession.send) == 1 }, time.Second, 5*time.Millisecond)
	assert.Len(t, drain(authorSession), 1)
}

func TestBroadcastExceptEvictsFullSession(t *testing.T) {
	env := newTestEnv(t)
	userId := uuid.New()
	s := newSession(env.hub, nil, userId, "slow")
	env.hub.registerSession(s)

	// registerSession leaves s out of its own user_online broadcast, so the
	// drain finds nothing; then fill the queue to its cap so the next
	// broadcast finds it full.
	drain(s)
	for i := 0; i < cap(s.send); i++ {
		s.send <- []byte("x")
	}

	env.hub.broadcastExcept([]byte("y"), uuid.Nil)

	// eviction is asynchronous (see Hub.evict); give the unregister loop a
	// moment to process it.
	require.Eventually(t, func() bool {
		env.hub.mu.RLock()
		defer env.hub.mu.RUnlock()
		_, ok := env.hub.sessionsByUser[userId]
		return !ok
	}, time.Second, 5*time.Millisecond, "full session should eventually be evicted")
}

func TestHandleSendMessagePersistsBroadcastsAndPublishes(t *testing.T) {
	env := newTestEnv(t)
	chatId := uuid.New()
	sender, other := uuid.New(), uuid.New()

	env.chats.(*memory.ChatRepository).Seed(&entity.Chat{Id: chatId, Kind: entity.ChatKindGroup},
		&entity.Membership{ChatId: chatId, UserId: sender, Role: entity.MemberRoleMember},
		&entity.Membership{ChatId: chatId, UserId: other, Role: entity.MemberRoleMember},
	)

	senderSession := newSession(env.hub, nil, sender, "sender")
	otherSession := newSession(env.hub, nil, other, "other")
	env.hub.registerSession(senderSession)
	env.hub.registerSession(otherSession)
	drain(senderSession)
	drain(otherSession)

	env.hub.subscribersByChat[chatId] = map[uuid.UUID]*Session{sender: senderSession, other: otherSession}

	// each registerSession above already published a user.presence event
	publishedBefore := env.pub.count()

	env.hub.handleSendMessage(context.Background(), senderSession, &Envelope{
		Payload: mustJSON(t, sendMessagePayload{ChatID: chatId.String(), Content: "hello"}),
	})

	senderFrames := drain(senderSession)
	require.Len(t, senderFrames, 1, "sender should see its own message echoed back")

	ev, err := decodeEnvelope(senderFrames[0])
	require.NoError(t, err)
	var payload messagePayload
	require.NoError(t, json.Unmarshal(ev.Payload, &payload))
	assert.Equal(t, "sender", payload.SenderName, "sender display name falls back to the session username when no user record exists")
	assert.False(t, payload.IsDeleted)

	require.Eventually(t, func() bool { return len(otherSession.send) == 1 }, time.Second, 5*time.Millisecond,
		"broadcast to the rest of the chat is queued on the hub loop")
	otherFrames := drain(otherSession)
	require.Len(t, otherFrames, 1, "other subscriber should receive the broadcast message")

	recent, err := env.messages.RecentMessages(context.Background(), chatId, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "hello", recent[0].Content)

	assert.Equal(t, publishedBefore+1, env.pub.count(), "send_message should publish one domain event")
}

func TestHandleSendMessageRejectsNonMember(t *testing.T) {
	env := newTestEnv(t)
	chatId := uuid.New()
	sender := uuid.New()
	env.chats.(*memory.ChatRepository).Seed(&entity.Chat{Id: chatId, Kind: entity.ChatKindGroup})

	s := newSession(env.hub, nil, sender, "sender")
	env.hub.registerSession(s)
	drain(s)

	env.hub.handleSendMessage(context.Background(), s, &Envelope{
		Payload: mustJSON(t, sendMessagePayload{ChatID: chatId.String(), Content: "hello"}),
	})

	frames := drain(s)
	require.Len(t, frames, 1)
	env2, err := decodeEnvelope(frames[0])
	require.NoError(t, err)
	assert.Equal(t, FrameError, env2.Type)

	recent, _ := env.messages.RecentMessages(context.Background(), chatId, 10)
	assert.Empty(t, recent)
}

func TestHandleSendMessageContentRequiredOnlyForText(t *testing.T) {
	env := newTestEnv(t)
	chatId := uuid.New()
	sender := uuid.New()

	env.chats.(*memory.ChatRepository).Seed(&entity.Chat{Id: chatId, Kind: entity.ChatKindGroup},
		&entity.Membership{ChatId: chatId, UserId: sender, Role: entity.MemberRoleMember},
	)

	s := newSession(env.hub, nil, sender, "sender")
	env.hub.registerSession(s)
	drain(s)
	env.hub.subscribersByChat[chatId] = map[uuid.UUID]*Session{sender: s}

	env.hub.handleSendMessage(context.Background(), s, &Envelope{
		Payload: mustJSON(t, sendMessagePayload{ChatID: chatId.String(), Content: ""}),
	})
	frames := drain(s)
	require.Len(t, frames, 1)
	ev, err := decodeEnvelope(frames[0])
	require.NoError(t, err)
	assert.Equal(t, FrameError, ev.Type, "empty content defaults to text and should be rejected")

	recent, _ := env.messages.RecentMessages(context.Background(), chatId, 10)
	assert.Empty(t, recent)

	mediaURL := "https://example.com/cat.png"
	env.hub.handleSendMessage(context.Background(), s, &Envelope{
		Payload: mustJSON(t, sendMessagePayload{ChatID: chatId.String(), Content: "", MessageType: "image", MediaURL: &mediaURL}),
	})
	frames = drain(s)
	require.Len(t, frames, 1)
	ev, err = decodeEnvelope(frames[0])
	require.NoError(t, err)
	assert.Equal(t, FrameMessage, ev.Type, "a media message with no caption is not an error")

	recent, err = env.messages.RecentMessages(context.Background(), chatId, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Empty(t, recent[0].Content)
	assert.Equal(t, entity.MessageType("image"), recent[0].MessageType)
}

func TestHandleReadMessageBroadcastsButReadChatDoesNot(t *testing.T) {
	env := newTestEnv(t)
	chatId := uuid.New()
	reader, other := uuid.New(), uuid.New()

	env.chats.(*memory.ChatRepository).Seed(&entity.Chat{Id: chatId, Kind: entity.ChatKindGroup},
		&entity.Membership{ChatId: chatId, UserId: reader, Role: entity.MemberRoleMember},
		&entity.Membership{ChatId: chatId, UserId: other, Role: entity.MemberRoleMember},
	)

	msg := &entity.Message{ChatId: chatId, SenderId: other, Content: "hi", MessageType: entity.MessageTypeText}
	require.NoError(t, env.messages.Create(context.Background(), msg))

	readerSession := newSession(env.hub, nil, reader, "reader")
	otherSession := newSession(env.hub, nil, other, "other")
	env.hub.registerSession(readerSession)
	env.hub.registerSession(otherSession)
	drain(readerSession)
	drain(otherSession)
	env.hub.subscribersByChat[chatId] = map[uuid.UUID]*Session{reader: readerSession, other: otherSession}

	env.hub.handleReadMessage(context.Background(), readerSession, &Envelope{
		Payload: mustJSON(t, readMessagePayload{MessageID: msg.Id.String()}),
	})
	require.Eventually(t, func() bool { return len(otherSession.send) == 1 }, time.Second, 5*time.Millisecond)
	otherFrames := drain(otherSession)
	require.Len(t, otherFrames, 1, "read_message should broadcast message_read to the rest of the chat")
	ev, err := decodeEnvelope(otherFrames[0])
	require.NoError(t, err)
	assert.Equal(t, FrameMessageRead, ev.Type)

	mark, err := env.messages.ReadMarkFor(context.Background(), chatId, reader)
	require.NoError(t, err)
	require.NotNil(t, mark)

	env.hub.handleReadChat(context.Background(), readerSession, &Envelope{
		Payload: mustJSON(t, readChatPayload{ChatID: chatId.String()}),
	})
	assert.Empty(t, drain(otherSession), "read_chat should not broadcast anything")
}

func TestHandleSubscribeReplaysRecentMessages(t *testing.T) {
	env := newTestEnv(t)
	chatId := uuid.New()
	userId := uuid.New()
	env.chats.(*memory.ChatRepository).Seed(&entity.Chat{Id: chatId, Kind: entity.ChatKindGroup},
		&entity.Membership{ChatId: chatId, UserId: userId, Role: entity.MemberRoleMember},
	)
	env.users.(*memory.UserRepository).Seed(&entity.User{Id: userId, Username: "alice", FullName: "Alice Example"})
	require.NoError(t, env.messages.Create(context.Background(), &entity.Message{
		ChatId: chatId, SenderId: userId, Content: "earlier", MessageType: entity.MessageTypeText,
	}))

	s := newSession(env.hub, nil, userId, "alice")
	env.hub.registerSession(s)
	drain(s)

	env.hub.handleSubscribe(context.Background(), s, &Envelope{
		Payload: mustJSON(t, subscribePayload{ChatID: chatId.String()}),
	})

	frames := drain(s)
	require.Len(t, frames, 1)
	ev, err := decodeEnvelope(frames[0])
	require.NoError(t, err)
	assert.Equal(t, FrameMessage, ev.Type)
	assert.True(t, s.isSubscribed(chatId))

	var payload messagePayload
	require.NoError(t, json.Unmarshal(ev.Payload, &payload))
	assert.Equal(t, "Alice Example", payload.SenderName, "replayed messages resolve sender display name from the user record")
}

func TestSetTypingAutoExpires(t *testing.T) {
	env := newTestEnv(t)
	chatId := uuid.New()
	typist, observer := uuid.New(), uuid.New()

	typistSession := newSession(env.hub, nil, typist, "typist")
	observerSession := newSession(env.hub, nil, observer, "observer")
	env.hub.registerSession(typistSession)
	env.hub.registerSession(observerSession)
	drain(typistSession)
	drain(observerSession)
	env.hub.subscribersByChat[chatId] = map[uuid.UUID]*Session{typist: typistSession, observer: observerSession}

	typistSession.setTyping(chatId, true, 20*time.Millisecond)

	var expired typingStatusPayload
	require.Eventually(t, func() bool {
		frames := drain(observerSession)
		for _, f := range frames {
			ev, err := decodeEnvelope(f)
			if err == nil && ev.Type == FrameTyping {
				var p typingStatusPayload
				if decodePayload(ev.Payload, &p) == nil && !p.IsTyping {
					expired = p
					return true
				}
			}
		}
		return false
	}, time.Second, 5*time.Millisecond, "typing status should auto-expire to false")
	assert.Equal(t, "typist", expired.UserName, "auto-expiry broadcast should carry the typist's display name")
}

func TestPresenceBroadcastsCarryUsernameAndLastSeen(t *testing.T) {
	env := newTestEnv(t)
	userId, observer := uuid.New(), uuid.New()

	observerSession := newSession(env.hub, nil, observer, "observer")
	env.hub.registerSession(observerSession)
	drain(observerSession)

	s := newSession(env.hub, nil, userId, "alice")
	env.hub.registerSession(s)

	var online userStatusPayload
	require.Eventually(t, func() bool {
		frames := drain(observerSession)
		for _, f := range frames {
			ev, err := decodeEnvelope(f)
			if err == nil && ev.Type == FrameUserOnline {
				require.NoError(t, decodePayload(ev.Payload, &online))
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "alice", online.Username)
	assert.True(t, online.IsOnline)

	env.hub.unregisterSession(s)

	var offline userStatusPayload
	require.Eventually(t, func() bool {
		frames := drain(observerSession)
		for _, f := range frames {
			ev, err := decodeEnvelope(f)
			if err == nil && ev.Type == FrameUserOffline {
				require.NoError(t, decodePayload(ev.Payload, &offline))
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "alice", offline.Username)
	assert.False(t, offline.IsOnline)
	require.NotNil(t, offline.LastSeen, "offline transition should stamp last_seen")
}

// TestChatBroadcastIsSerializedAcrossConcurrentSenders exercises the property
// that makes the broadcast/chatBroadcast channels worth having: when several
// goroutines call broadcastToChat for the same chat at once, Run applies them
// one at a time, so every subscriber ends up with the exact same relative
// order of frames rather than an order that depends on scheduling.
func TestChatBroadcastIsSerializedAcrossConcurrentSenders(t *testing.T) {
	cfg := testConfig()
	cfg.OutboundQueueSize = 64

	h := New(cfg, memory.NewUserRepository(), memory.NewChatRepository(), memory.NewMessageRepository(),
		&fakePublisher{}, nil, noopLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(cancel)

	chatId := uuid.New()
	a, b := uuid.New(), uuid.New()
	sessionA := newSession(h, nil, a, "a")
	sessionB := newSession(h, nil, b, "b")
	h.registerSession(sessionA)
	h.registerSession(sessionB)
	drain(sessionA)
	drain(sessionB)
	h.subscribersByChat[chatId] = map[uuid.UUID]*Session{a: sessionA, b: sessionB}

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h.broadcastToChat(chatId, []byte(fmt.Sprintf("m%02d", i)), uuid.Nil, false)
		}(i)
	}
	wg.Wait()

	var framesA, framesB [][]byte
	require.Eventually(t, func() bool {
		framesA = append(framesA, drain(sessionA)...)
		framesB = append(framesB, drain(sessionB)...)
		return len(framesA) == n && len(framesB) == n
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, framesA, framesB, "every subscriber must observe concurrently broadcast frames in the same relative order")
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
