package serverutils

import "github.com/gofiber/fiber/v2"

// ErrorHandlerMiddleware recovers fiber's default per-route error handling
// into a single JSON shape, so a handler can just return an error instead of
// writing a response itself.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if err := ctx.Next(); err != nil {
			code := fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			}
			return ctx.Status(code).JSON(fiber.Map{"message": err.Error()})
		}
		return nil
	}
}
