package hub

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// Serve handles one upgraded websocket connection for the lifetime of the
// connection. Call it as the body of a gofiber websocket.New handler, after
// auth middleware has populated the connection locals with the caller's
// identity.
func Serve(h *Hub, conn *websocket.Conn, userId uuid.UUID, username string) {
	s := newSession(h, conn, userId, username)
	h.register <- s

	go s.writePump()
	s.readPump()
}
