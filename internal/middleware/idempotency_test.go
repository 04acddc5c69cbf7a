package middleware

import (
	"io"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/accountgate/internal/logging"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })
	return mr, cache
}

func setupIdempotencyApp(t *testing.T, status int) (*fiber.App, *int32) {
	t.Helper()
	_, cache := newRedis(t)
	var calls int32
	app := fiber.New()
	app.Use(Idempotency(cache, time.Minute, logging.Discard()))
	app.Post("/auth/signup", func(c *fiber.Ctx) error {
		n := atomic.AddInt32(&calls, 1)
		return c.Status(status).JSON(fiber.Map{"call": n})
	})
	return app, &calls
}

func post(t *testing.T, app *fiber.App, key string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/auth/signup", strings.NewReader("{}"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if key != "" {
		req.Header.Set(idempotencyKeyHeader, key)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestIdempotencyWithoutHeaderPassesThrough(t *testing.T) {
	app, calls := setupIdempotencyApp(t, fiber.StatusCreated)

	post(t, app, "")
	post(t, app, "")

	assert.EqualValues(t, 2, atomic.LoadInt32(calls))
}

func TestIdempotencyReturnsCachedResponse(t *testing.T) {
	app, calls := setupIdempotencyApp(t, fiber.StatusCreated)

	status1, body1 := post(t, app, "abc123")
	status2, body2 := post(t, app, "abc123")

	assert.Equal(t, fiber.StatusCreated, status1)
	assert.Equal(t, status1, status2)
	assert.Equal(t, body1, body2)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestIdempotencyDoesNotStoreFailures(t *testing.T) {
	app, calls := setupIdempotencyApp(t, fiber.StatusBadRequest)

	post(t, app, "retry-me")
	post(t, app, "retry-me")

	assert.EqualValues(t, 2, atomic.LoadInt32(calls))
}

func TestIdempotencyInProgressConflict(t *testing.T) {
	mr, cache := newRedis(t)
	app := fiber.New()
	app.Use(Idempotency(cache, time.Minute, logging.Discard()))
	app.Post("/auth/signup", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) })
	require.NoError(t, mr.Set(idempotencyPrefix+"/auth/signup:busy", inProgressMarker))

	status, _ := post(t, app, "busy")
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestIdempotencyNilCache(t *testing.T) {
	app := fiber.New()
	app.Use(Idempotency(nil, time.Minute, logging.Discard()))
	app.Post("/auth/signup", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) })

	status, _ := post(t, app, "k")
	assert.Equal(t, fiber.StatusCreated, status)
}
