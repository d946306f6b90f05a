package hub

import (
	"context"
	"sync"
	"time"

	"chathub/internal/config"
	"chathub/internal/entity"
	"chathub/internal/pkg/logger"
	"chathub/internal/repository/contract"
	"chathub/pkg/events"
	"chathub/pkg/presence"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// replayCacheTTL bounds how long a chat's recent-message window is cached
// in front of the repository before the next subscribe re-fetches it.
const replayCacheTTL = 5 * time.Second

type eventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// exceptJob is a request to fan a frame out to every locally registered
// session except one, queued on Hub.broadcast.
type exceptJob struct {
	data          []byte
	excludeUserId uuid.UUID
}

// chatJob is a request to fan a frame out to chatId's subscribers, queued on
// Hub.chatBroadcast.
type chatJob struct {
	chatId      uuid.UUID
	data        []byte
	authorId    uuid.UUID
	excludeSelf bool
}

// Hub is the single writer for session registration and fan-out ordering.
// Register, unregister, broadcast, and broadcast-to-chat flow through its
// four channels and are serialized inside Run, so two sessions publishing to
// the same chat at the same instant are still delivered to every subscriber
// in one consistent relative order. Chat subscriptions are not routed through
// Run: subscribeToChat and unsubscribeFromChat update subscribersByChat from
// the calling reader goroutine, under mu.
type Hub struct {
	cfg config.HubConfig

	sessionsByUser    map[uuid.UUID]*Session
	subscribersByChat map[uuid.UUID]map[uuid.UUID]*Session // chatId -> userId -> session

	register      chan *Session
	unregister    chan *Session
	broadcast     chan exceptJob
	chatBroadcast chan chatJob

	users    contract.UserRepository
	chats    contract.ChatRepository
	messages contract.MessageRepository

	replayCache *gocache.Cache
	publisher   eventPublisher
	relay       *presence.Bus

	logger logger.ILogger

	mu sync.RWMutex // guards sessionsByUser/subscribersByChat: written by register/unregister and subscribe/unsubscribe, read by fan-out, IsOnline, OnlineUsers
}

func New(
	cfg config.HubConfig,
	users contract.UserRepository,
	chats contract.ChatRepository,
	messages contract.MessageRepository,
	publisher eventPublisher,
	relay *presence.Bus,
	log logger.ILogger,
) *Hub {
	return &Hub{
		cfg:               cfg,
		sessionsByUser:    make(map[uuid.UUID]*Session),
		subscribersByChat: make(map[uuid.UUID]map[uuid.UUID]*Session),
		register:          make(chan *Session),
		unregister:        make(chan *Session),
		broadcast:         make(chan exceptJob),
		chatBroadcast:     make(chan chatJob),
		users:             users,
		chats:             chats,
		messages:          messages,
		replayCache:       gocache.New(gocache.NoExpiration, gocache.NoExpiration),
		publisher:         publisher,
		relay:             relay,
		logger:            log,
	}
}

// Run drives the hub loop. It should be started once, on its own goroutine,
// before the server starts accepting upgrades. Every fan-out request, from
// whichever reader or timer goroutine raised it, is applied one at a time
// here: that single-file ordering is what makes "every subscriber sees the
// same message order" a guarantee rather than a coincidence of scheduling.
func (h *Hub) Run(ctx context.Context) {
	if h.relay != nil {
		go h.relay.Subscribe(ctx, h.handleRelayedDelivery)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case s := <-h.register:
			h.registerSession(s)
		case s := <-h.unregister:
			h.unregisterSession(s)
		case job := <-h.broadcast:
			h.doBroadcastExcept(job.data, job.excludeUserId)
		case job := <-h.chatBroadcast:
			h.doBroadcastToChat(job.chatId, job.data, job.authorId, job.excludeSelf)
		}
	}
}

func (h *Hub) registerSession(s *Session) {
	h.mu.Lock()
	if existing, ok := h.sessionsByUser[s.userId]; ok {
		close(existing.send)
		for chatId := range existing.subscribed {
			h.removeSubscriberLocked(chatId, existing.userId)
		}
	}
	h.sessionsByUser[s.userId] = s
	h.mu.Unlock()

	h.onSessionOnline(s)

	h.logger.Info("Hub", "session registered", map[string]interface{}{"user_id": s.userId})
}

func (h *Hub) unregisterSession(s *Session) {
	h.mu.Lock()
	current, ok := h.sessionsByUser[s.userId]
	if !ok || current != s {
		h.mu.Unlock()
		return
	}
	delete(h.sessionsByUser, s.userId)
	for _, chatId := range s.subscribedChats() {
		h.removeSubscriberLocked(chatId, s.userId)
	}
	close(s.send)
	h.mu.Unlock()

	h.onSessionOffline(s)

	h.logger.Info("Hub", "session unregistered", map[string]interface{}{"user_id": s.userId})
}

func (h *Hub) removeSubscriberLocked(chatId, userId uuid.UUID) {
	members, ok := h.subscribersByChat[chatId]
	if !ok {
		return
	}
	delete(members, userId)
	if len(members) == 0 {
		delete(h.subscribersByChat, chatId)
	}
}

// broadcastExcept queues a fan-out-except-one request on the hub loop. Call
// this from any goroutine other than Run's own (readPump dispatch, typing
// timers). It blocks until Run accepts the job, which is what gives two
// concurrent broadcasts their relative order.
func (h *Hub) broadcastExcept(data []byte, excludeUserId uuid.UUID) {
	h.broadcast <- exceptJob{data: data, excludeUserId: excludeUserId}
}

// broadcastToChat queues a fan-out-to-chat request on the hub loop, with the
// same caller restriction as broadcastExcept.
func (h *Hub) broadcastToChat(chatId uuid.UUID, data []byte, authorId uuid.UUID, excludeSelf bool) {
	h.chatBroadcast <- chatJob{chatId: chatId, data: data, authorId: authorId, excludeSelf: excludeSelf}
}

// doBroadcastExcept performs the actual fan-out to every locally registered
// session except excludeUserId, evicting any session whose outbound queue is
// full. Only ever called from Run's goroutine: directly from
// onSessionOnline/onSessionOffline (already serialized there) or indirectly
// via the broadcast channel.
func (h *Hub) doBroadcastExcept(data []byte, excludeUserId uuid.UUID) {
	h.mu.RLock()
	sessions := make([]*Session, 0, len(h.sessionsByUser))
	for userId, s := range h.sessionsByUser {
		if userId != excludeUserId {
			sessions = append(sessions, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range sessions {
		if !s.enqueue(data) {
			h.evict(s)
		}
	}
}

// doBroadcastToChat performs the actual fan-out to every session subscribed
// to chatId. excludeSelf skips the frame's own author when true. Only ever
// called from Run's goroutine, same restriction as doBroadcastExcept.
func (h *Hub) doBroadcastToChat(chatId uuid.UUID, data []byte, authorId uuid.UUID, excludeSelf bool) {
	h.mu.RLock()
	members := h.subscribersByChat[chatId]
	sessions := make([]*Session, 0, len(members))
	for userId, s := range members {
		if !excludeSelf || userId != authorId {
			sessions = append(sessions, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range sessions {
		if !s.enqueue(data) {
			h.evict(s)
		}
	}

	if h.relay != nil {
		h.relay.Publish(context.Background(), uuid.Nil, data)
	}
}

// evict hands an unresponsive session to unregisterSession without blocking
// the caller on the unregister channel: doBroadcastExcept/doBroadcastToChat
// run on Run's own goroutine, where a synchronous send would deadlock
// against the very loop meant to receive it.
func (h *Hub) evict(s *Session) {
	go func() { h.unregister <- s }()
}

func (h *Hub) handleRelayedDelivery(d presence.Delivery) {
	if d.TargetUserID == uuid.Nil {
		h.mu.RLock()
		sessions := make([]*Session, 0, len(h.sessionsByUser))
		for _, s := range h.sessionsByUser {
			sessions = append(sessions, s)
		}
		h.mu.RUnlock()
		for _, s := range sessions {
			s.enqueue([]byte(d.Envelope))
		}
		return
	}

	h.mu.RLock()
	s, ok := h.sessionsByUser[d.TargetUserID]
	h.mu.RUnlock()
	if ok {
		s.enqueue([]byte(d.Envelope))
	}
}

// IsOnline reports whether userId has a live session on this instance.
func (h *Hub) IsOnline(userId uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.sessionsByUser[userId]
	return ok
}

// OnlineUsers returns the ids of every user with a live session on this
// instance.
func (h *Hub) OnlineUsers() []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]uuid.UUID, 0, len(h.sessionsByUser))
	for userId := range h.sessionsByUser {
		out = append(out, userId)
	}
	return out
}

// subscribeToChat adds s to chatId's fan-out set and replays the chat's
// recent history to it. Membership is checked by the caller (intents.go)
// before this is called.
func (h *Hub) subscribeToChat(ctx context.Context, s *Session, chatId uuid.UUID) {
	h.mu.Lock()
	if _, ok := h.subscribersByChat[chatId]; !ok {
		h.subscribersByChat[chatId] = make(map[uuid.UUID]*Session)
	}
	h.subscribersByChat[chatId][s.userId] = s
	h.mu.Unlock()

	s.subscribe(chatId)
	h.replayRecent(ctx, s, chatId)
}

func (h *Hub) unsubscribeFromChat(s *Session, chatId uuid.UUID) {
	h.mu.Lock()
	h.removeSubscriberLocked(chatId, s.userId)
	h.mu.Unlock()
	s.unsubscribe(chatId)
}

// replayRecent sends the chat's last N messages to a freshly subscribed
// session, using a short-lived cache in front of the repository so rapid
// resubscribes (reconnect storms) don't hammer the database.
func (h *Hub) replayRecent(ctx context.Context, s *Session, chatId uuid.UUID) {
	cacheKey := chatId.String()

	var messages []*entity.Message
	if cached, ok := h.replayCache.Get(cacheKey); ok {
		messages = cached.([]*entity.Message)
	} else {
		var err error
		messages, err = h.messages.RecentMessages(ctx, chatId, h.cfg.ReplayWindow)
		if err != nil {
			h.logger.Warn("Hub", "failed to load recent messages", map[string]interface{}{"chat_id": chatId, "error": err.Error()})
			return
		}
		h.replayCache.Set(cacheKey, messages, replayCacheTTL)
	}

	senders := make(map[uuid.UUID]*entity.User)
	for _, m := range messages {
		u, ok := senders[m.SenderId]
		if !ok {
			u, _ = h.users.GetById(ctx, m.SenderId)
			senders[m.SenderId] = u
		}
		name, avatar := "", (*string)(nil)
		if u != nil {
			name = u.FullName
			if name == "" {
				name = u.Username
			}
			avatar = u.AvatarURL
		}
		s.enqueue(encodeEnvelope(FrameMessage, messageFromEntity(m, name, avatar)))
	}
}
