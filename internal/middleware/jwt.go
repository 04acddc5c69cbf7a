package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/accountgate/internal/account"
	"github.com/congo-pay/accountgate/internal/auth"
)

// TokenValidator resolves a bearer token into the account id it was issued for.
type TokenValidator interface {
	Validate(token string) (string, error)
}

var _ TokenValidator = (*auth.Issuer)(nil)

// JWTAuth returns a middleware that validates bearer access tokens.
func JWTAuth(validator TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])
		sub, err := validator.Validate(tokenStr)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}
		c.Locals(account.LocalAccountID, sub)
		return c.Next()
	}
}
