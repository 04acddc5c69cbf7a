package middleware

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/accountgate/internal/account"
)

type stubValidator struct{}

func (stubValidator) Validate(token string) (string, error) {
	if token == "good" {
		return "acc-1", nil
	}
	return "", errors.New("bad token")
}

func TestJWTAuth(t *testing.T) {
	app := fiber.New()
	app.Get("/me", JWTAuth(stubValidator{}), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(account.LocalAccountID).(string))
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "valid", header: "Bearer good", status: fiber.StatusOK},
		{name: "lowercase scheme", header: "bearer good", status: fiber.StatusOK},
		{name: "missing", header: "", status: fiber.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good", status: fiber.StatusUnauthorized},
		{name: "invalid", header: "Bearer bad", status: fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestRateLimitPerEmail(t *testing.T) {
	_, cache := newRedis(t)
	app := fiber.New()
	app.Post("/login", LoginRateLimit(cache, 2), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	send := func(email string) int {
		req := httptest.NewRequest(fiber.MethodPost, "/login", strings.NewReader(`{"email":"`+email+`"}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusOK, send("a@example.com"))
	assert.Equal(t, fiber.StatusOK, send("A@example.com "))
	assert.Equal(t, fiber.StatusTooManyRequests, send("a@example.com"))
	assert.Equal(t, fiber.StatusOK, send("b@example.com"))
}

func TestResendRateLimitUsesQuery(t *testing.T) {
	mr, cache := newRedis(t)
	app := fiber.New()
	app.Post("/resend", ResendRateLimit(cache, 1), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	send := func() int {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/resend?email=a@example.com", nil))
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusOK, send())
	assert.Equal(t, fiber.StatusTooManyRequests, send())
	assert.True(t, mr.Exists("rl:resend:a@example.com"))
	assert.Greater(t, mr.TTL("rl:resend:a@example.com"), time.Duration(0))
}

func TestRateLimitWithoutRedis(t *testing.T) {
	app := fiber.New()
	app.Post("/login", LoginRateLimit(nil, 1), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/login", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}

func TestRequestIDAndAudit(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	app := fiber.New()
	app.Use(RequestID(), Audit(logger))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/bad", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusBadRequest, "nope") })

	req := httptest.NewRequest(fiber.MethodGet, "/ok", nil)
	req.Header.Set(requestIDHeader, "req-42")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "req-42", resp.Header.Get(requestIDHeader))
	assert.Contains(t, buf.String(), `"request_id":"req-42"`)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/bad", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(requestIDHeader))
	assert.Contains(t, buf.String(), `"level":"WARN"`)
}
