package serverutils

import (
	"chathub/internal/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WsAuthMiddleware authenticates the upgrade request ahead of the websocket
// handshake. Browsers can't set custom headers on a WS handshake, so the
// bearer token travels as a query parameter instead of Authorization.
func WsAuthMiddleware(tm *auth.TokenManager) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(ctx) {
			return fiber.ErrUpgradeRequired
		}

		token := ctx.Query("token")
		if token == "" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing token"})
		}

		claims, err := tm.Verify(token)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
		}

		ctx.Locals("user_id", claims.UserID)
		ctx.Locals("username", claims.Username)
		return ctx.Next()
	}
}
