package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// KeyFunc extracts the rate limit subject from a request. An empty result
// falls back to the client IP.
type KeyFunc func(c *fiber.Ctx) string

// EmailFromBody reads the "email" field of a JSON body.
func EmailFromBody(c *fiber.Ctx) string {
	var req struct {
		Email string `json:"email"`
	}
	_ = c.BodyParser(&req)
	return strings.ToLower(strings.TrimSpace(req.Email))
}

// EmailFromQueryOrBody reads the "email" query parameter, then the JSON body.
func EmailFromQueryOrBody(c *fiber.Ctx) string {
	if email := strings.ToLower(strings.TrimSpace(c.Query("email"))); email != "" {
		return email
	}
	return EmailFromBody(c)
}

// RateLimit caps requests per subject per window using Redis if available.
func RateLimit(cache *redis.Client, scope string, limit int, window time.Duration, key KeyFunc, message string) fiber.Handler {
	if limit <= 0 {
		limit = 5
	}
	if window <= 0 {
		window = time.Minute
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next() // no-op without Redis
		}
		subject := key(c)
		if subject == "" {
			subject = c.IP()
		}
		k := "rl:" + scope + ":" + subject
		cnt, err := cache.Incr(c.UserContext(), k).Result()
		if err == nil && cnt == 1 {
			cache.Expire(c.UserContext(), k, window)
		}
		if err != nil {
			return c.Next() // fail-open on cache errors
		}
		if cnt > int64(limit) {
			return fiber.NewError(http.StatusTooManyRequests, message)
		}
		return c.Next()
	}
}

// LoginRateLimit limits login attempts per email or IP.
func LoginRateLimit(cache *redis.Client, maxPerMin int) fiber.Handler {
	return RateLimit(cache, "login", maxPerMin, time.Minute, EmailFromBody, "too many login attempts, try again later")
}

// ResendRateLimit limits verification code resends per email or IP.
func ResendRateLimit(cache *redis.Client, maxPerHour int) fiber.Handler {
	return RateLimit(cache, "resend", maxPerHour, time.Hour, EmailFromQueryOrBody, "too many verification code requests, try again later")
}
