package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

func TestLoginRateLimitBlocksAfterMax(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	app := fiber.New()
	app.Use(LoginRateLimit(cache, 3))
	app.Post("/login", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	do := func() int {
		req := httptest.NewRequest(fiber.MethodPost, "/login", strings.NewReader(`{"phone":"+919900000000"}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	for i := 0; i < 3; i++ {
		if got := do(); got != fiber.StatusOK {
			t.Fatalf("attempt %d status = %d, want 200", i+1, got)
		}
	}
	if got := do(); got != fiber.StatusTooManyRequests {
		t.Fatalf("fourth attempt status = %d, want 429", got)
	}
}

func TestLoginRateLimitFailsOpenWithoutRedis(t *testing.T) {
	app := fiber.New()
	app.Use(LoginRateLimit(nil, 1))
	app.Post("/login", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(fiber.MethodPost, "/login", strings.NewReader(`{"phone":"+919900000000"}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
	}
}

func TestRequestIDGeneratedWhenMissing(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	if resp.Header.Get(requestIDHeader) == "" {
		t.Fatal("expected generated request id header")
	}
}
