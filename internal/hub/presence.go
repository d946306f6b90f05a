package hub

import (
	"context"
	"time"

	"chathub/pkg/events"

	"github.com/google/uuid"
)

// onSessionOnline is called once a new Session has won its slot in
// sessionsByUser. It flips the user's persisted online flag, publishes a
// user.presence domain event, and announces the transition to every other
// local session.
func (h *Hub) onSessionOnline(s *Session) {
	ctx := context.Background()
	_ = h.users.SetOnline(ctx, s.userId, true)
	h.publishPresence(ctx, s.userId, true)

	// onSessionOnline runs on Run's own goroutine (via registerSession), so
	// it calls the fan-out directly rather than through the broadcast
	// channel: sending there would block Run on itself.
	h.doBroadcastExcept(encodeEnvelope(FrameUserOnline, userStatusPayload{
		UserID:   s.userId.String(),
		Username: s.username,
		IsOnline: true,
	}), s.userId)
}

// onSessionOffline is the inverse transition, run once a Session has been
// fully removed from sessionsByUser.
func (h *Hub) onSessionOffline(s *Session) {
	ctx := context.Background()
	_ = h.users.SetOnline(ctx, s.userId, false)
	h.publishPresence(ctx, s.userId, false)

	lastSeen := time.Now()
	h.doBroadcastExcept(encodeEnvelope(FrameUserOffline, userStatusPayload{
		UserID:   s.userId.String(),
		Username: s.username,
		IsOnline: false,
		LastSeen: &lastSeen,
	}), s.userId)
}

func (h *Hub) publishPresence(ctx context.Context, userId uuid.UUID, online bool) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.Publish(ctx, events.NewUserPresence(userId, online)); err != nil {
		h.logger.Warn("Hub", "failed to publish presence event", map[string]interface{}{"error": err.Error()})
	}
}
