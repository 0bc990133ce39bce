package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type okPinger struct{}

func (okPinger) Ping() error { return nil }

type downStorage struct{}

func (downStorage) Ping(ctx context.Context) error { return errors.New("bucket unreachable") }

func setupHealthHandlers(t *testing.T) (*Handlers, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return &Handlers{
		Rdb:            rdb,
		DB:             okPinger{},
		HealthAdminKey: "test-admin-key",
	}, mr
}

func decode(t *testing.T, body io.Reader, v interface{}) {
	t.Helper()
	raw, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, v))
}

func TestReset_Unauthorized(t *testing.T) {
	h, _ := setupHealthHandlers(t)
	app := fiber.New()
	app.Get("/reset", h.Reset)

	resp, err := app.Test(httptest.NewRequest("GET", "/reset", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	var out map[string]interface{}
	decode(t, resp.Body, &out)
	assert.Equal(t, false, out["ok"])

	resp, err = app.Test(httptest.NewRequest("GET", "/reset?key=wrong", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestReset_Success(t *testing.T) {
	h, _ := setupHealthHandlers(t)
	app := fiber.New()
	app.Get("/reset", h.Reset)

	ctx := context.Background()
	require.NoError(t, h.Rdb.Set(ctx, "health:global:req_total", "5", 0).Err())
	resp, err := app.Test(httptest.NewRequest("GET", "/reset?key=test-admin-key", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	_, err = h.Rdb.Get(ctx, "health:global:req_total").Result()
	assert.ErrorIs(t, err, redis.Nil)
	_, err = h.Rdb.Get(ctx, "health:global:start_time").Result()
	assert.NoError(t, err)
}

func TestJSON_ReturnsStructure(t *testing.T) {
	h, _ := setupHealthHandlers(t)
	app := fiber.New()
	app.Get("/health/json", h.JSON)

	resp, err := app.Test(httptest.NewRequest("GET", "/health/json", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var out map[string]interface{}
	decode(t, resp.Body, &out)
	assert.Equal(t, ServiceName, out["service"])
	assert.Equal(t, "ok", out["status"])
	deps := out["dependencies"].(map[string]interface{})
	assert.Contains(t, deps, "database")
	assert.Contains(t, deps, "redis")
	assert.Equal(t, "disconnected", deps["storage"].(map[string]interface{})["status"])
}

func TestJSON_StorageDownIsAnIssue(t *testing.T) {
	h, _ := setupHealthHandlers(t)
	h.Storage = downStorage{}
	app := fiber.New()
	app.Get("/health/json", h.JSON)

	resp, err := app.Test(httptest.NewRequest("GET", "/health/json", nil))
	require.NoError(t, err)
	var out map[string]interface{}
	decode(t, resp.Body, &out)
	assert.Equal(t, "issue", out["status"])
}

func TestErrors_ReturnsArray(t *testing.T) {
	h, _ := setupHealthHandlers(t)
	app := fiber.New()
	app.Get("/health/errors", h.Errors)

	resp, err := app.Test(httptest.NewRequest("GET", "/health/errors", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var empty []interface{}
	decode(t, resp.Body, &empty)
	assert.Empty(t, empty)

	h.Rdb.LPush(context.Background(), "health:global:error_log", `{"time":"2024-01-01T12:00:00Z","path":"/api/v1/propiedades","method":"GET","message":"status 500"}`)
	resp, err = app.Test(httptest.NewRequest("GET", "/health/errors", nil))
	require.NoError(t, err)
	var entries []map[string]interface{}
	decode(t, resp.Body, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, "status 500", entries[0]["message"])
}

func TestDashboard_ReturnsHTML(t *testing.T) {
	h, _ := setupHealthHandlers(t)
	app := fiber.New()
	app.Get("/", h.Dashboard)

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	raw, _ := io.ReadAll(resp.Body)
	html := string(raw)
	assert.Contains(t, html, "IsaHouse · Estado del API")
	assert.Contains(t, html, "Todos los sistemas operativos")
	assert.Contains(t, html, "/health/json")
}
