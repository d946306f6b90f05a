package hub

import (
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// Session is the server-side handle for one connected client. At most one
// Session exists per user id in a Hub at a time; accepting a new one evicts
// whatever Session the user already held (see Hub.registerSession).
type Session struct {
	hub      *Hub
	conn     *websocket.Conn
	userId   uuid.UUID
	username string

	send chan []byte

	mu         sync.RWMutex
	subscribed map[uuid.UUID]bool
	typing     map[uuid.UUID]*time.Timer
}

func newSession(h *Hub, conn *websocket.Conn, userId uuid.UUID, username string) *Session {
	return &Session{
		hub:        h,
		conn:       conn,
		userId:     userId,
		username:   username,
		send:       make(chan []byte, h.cfg.OutboundQueueSize),
		subscribed: make(map[uuid.UUID]bool),
		typing:     make(map[uuid.UUID]*time.Timer),
	}
}

// enqueue attempts a non-blocking send to the session's outbound queue and
// reports false when the queue is full. The hub's fan-out treats false as an
// unresponsive session and evicts it rather than let a slow reader stall the
// hub loop; direct replies (errors, replay, the sender's echo) drop the frame.
func (s *Session) enqueue(data []byte) bool {
	select {
	case s.send <- data:
		return true
	default:
		return false
	}
}

func (s *Session) isSubscribed(chatId uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subscribed[chatId]
}

func (s *Session) subscribe(chatId uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribed[chatId] = true
}

func (s *Session) unsubscribe(chatId uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscribed, chatId)
	if t, ok := s.typing[chatId]; ok {
		t.Stop()
		delete(s.typing, chatId)
	}
}

func (s *Session) subscribedChats() []uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]uuid.UUID, 0, len(s.subscribed))
	for id := range s.subscribed {
		out = append(out, id)
	}
	return out
}

// setTyping marks the session as typing in chatId and arms a timer that
// auto-clears the status if no typing_stop arrives — a client that dies
// mid-keystroke shouldn't leave "is typing" stuck forever.
func (s *Session) setTyping(chatId uuid.UUID, isTyping bool, expiry time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.typing[chatId]; ok {
		existing.Stop()
		delete(s.typing, chatId)
	}

	if !isTyping {
		return
	}

	s.typing[chatId] = time.AfterFunc(expiry, func() {
		s.hub.broadcastToChat(chatId, encodeEnvelope(FrameTyping, typingStatusPayload{
			ChatID:   chatId.String(),
			UserID:   s.userId.String(),
			UserName: s.username,
			IsTyping: false,
		}), s.userId, true)
		s.mu.Lock()
		delete(s.typing, chatId)
		s.mu.Unlock()
	})
}

// readPump reads frames from the socket and runs each one through
// Hub.dispatch inline, so intent handlers execute on this goroutine, the one
// that accepted the connection.
func (s *Session) readPump() {
	cfg := s.hub.cfg
	defer func() {
		s.hub.unregister <- s
		s.conn.Close()
	}()

	s.conn.SetReadLimit(cfg.MaxMessageBytes)
	s.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
		return nil
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.hub.logger.Warn("Session", "session closed unexpectedly", map[string]interface{}{"user_id": s.userId, "error": err.Error()})
			}
			break
		}

		env, err := decodeEnvelope(raw)
		if err != nil {
			s.sendError("invalid_json", "failed to parse message")
			continue
		}

		s.hub.dispatch(s, env)
	}
}

// writePump pumps frames from the hub to the socket, coalescing any frames
// queued while a write was in flight into the same websocket message.
func (s *Session) writePump() {
	cfg := s.hub.cfg
	ticker := time.NewTicker(cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case data, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := s.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(data)

			n := len(s.send)
			for i := 0; i < n; i++ {
				w.Write(<-s.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Session) sendError(code, message string) {
	s.enqueue(encodeEnvelope(FrameError, errorPayload{Code: code, Message: message}))
}
