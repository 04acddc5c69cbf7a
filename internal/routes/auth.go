package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/accountgate/internal/account"
	"github.com/congo-pay/accountgate/internal/auth"
)

type handlers struct {
	accounts    *account.Handler
	auth        *auth.Handler
	idempotency fiber.Handler
	loginLimit  fiber.Handler
	resendLimit fiber.Handler
	jwt         fiber.Handler
}

// RegisterAuthRoutes wires the account lifecycle endpoints.
func RegisterAuthRoutes(r fiber.Router, h handlers) {
	group := r.Group("/auth")
	group.Post("/signup", h.idempotency, h.accounts.Signup)
	group.Post("/login", h.loginLimit, h.auth.Login)
	group.Post("/verify", h.accounts.Verify)
	group.Post("/resend", h.resendLimit, h.accounts.Resend)
}

// RegisterUserRoutes wires endpoints that require a bearer token.
func RegisterUserRoutes(r fiber.Router, h handlers) {
	r.Get("/users/me", h.jwt, h.accounts.Me)
}
