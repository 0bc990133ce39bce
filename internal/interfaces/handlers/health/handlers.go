package health

import (
	"encoding/json"
	"strconv"
	"time"

	healthsvc "inmuebles-backend/internal/application/health"
	"inmuebles-backend/internal/middleware"
	"inmuebles-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// ServiceName is reported by /health/json.
const ServiceName = "inmuebles-api"

// Handlers holds dependencies for health endpoints. Storage may be nil when
// no bucket is configured.
type Handlers struct {
	Rdb            *redis.Client
	DB             healthsvc.DBPinger
	Storage        healthsvc.StoragePinger
	HealthAdminKey string
}

// Reset clears health stats in Redis. Requires query key=HEALTH_ADMIN_KEY.
func (h *Handlers) Reset(c *fiber.Ctx) error {
	key := c.Query("key")
	if key == "" || key != h.HealthAdminKey {
		return response.Error(c, "No autorizado.", fiber.StatusForbidden)
	}
	if h.Rdb == nil {
		return response.Error(c, "Redis no está configurado.", fiber.StatusServiceUnavailable)
	}
	ctx := c.UserContext()
	keys := []string{middleware.KeyReqTotal, middleware.KeyReqErrors, middleware.KeyResTime, middleware.KeyResCount, middleware.KeyStartTime, middleware.KeyLastReq, middleware.KeyErrorLog}
	if err := h.Rdb.Del(ctx, keys...).Err(); err != nil {
		return response.Error(c, err.Error(), fiber.StatusInternalServerError)
	}
	if err := h.Rdb.Set(ctx, middleware.KeyStartTime, strconv.FormatInt(time.Now().UnixMilli(), 10), 0).Err(); err != nil {
		return response.Error(c, err.Error(), fiber.StatusInternalServerError)
	}
	return response.Success(c, fiber.Map{"reiniciado": true})
}

// JSON returns service status, runtime, traffic and dependencies.
func (h *Handlers) JSON(c *fiber.Ctx) error {
	result := healthsvc.CollectHealth(c.UserContext(), h.Rdb, h.DB, h.Storage)
	return c.JSON(fiber.Map{
		"service":      ServiceName,
		"status":       result.Status,
		"runtime":      result.Runtime,
		"traffic":      result.Traffic,
		"dependencies": result.Dependencies,
	})
}

// Errors returns the last 50 error log entries from Redis.
func (h *Handlers) Errors(c *fiber.Ctx) error {
	if h.Rdb == nil {
		return c.JSON([]interface{}{})
	}
	entries, err := h.Rdb.LRange(c.UserContext(), middleware.KeyErrorLog, 0, 49).Result()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON([]interface{}{})
	}
	out := make([]map[string]interface{}, 0, len(entries))
	for _, s := range entries {
		var m map[string]interface{}
		if json.Unmarshal([]byte(s), &m) == nil && m != nil {
			out = append(out, m)
		}
	}
	return c.JSON(out)
}

// Dashboard returns the HTML status page with embedded health data.
func (h *Handlers) Dashboard(c *fiber.Ctx) error {
	result := healthsvc.CollectHealth(c.UserContext(), h.Rdb, h.DB, h.Storage)
	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.SendString(healthsvc.RenderDashboardHTML(result))
}
