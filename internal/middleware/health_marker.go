package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Redis keys for the traffic stats shown by the health dashboard.
const (
	KeyReqTotal  = "health:global:req_total"
	KeyReqErrors = "health:global:req_errors"
	KeyResTime   = "health:global:res_time_total"
	KeyResCount  = "health:global:res_count"
	KeyStartTime = "health:global:start_time"
	KeyLastReq   = "health:global:last_request"
	KeyErrorLog  = "health:global:error_log"
)

// errorLogSize is how many 5xx entries KeyErrorLog keeps.
const errorLogSize = 50

// HealthMarker records request stats in Redis (skip /, /health*, favicon).
// A nil client disables it.
func HealthMarker(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if rdb == nil || path == "/" || strings.HasPrefix(path, "/health") || strings.HasPrefix(path, "/favicon") {
			return c.Next()
		}

		start := time.Now()
		lastReq := map[string]interface{}{
			"time":   start,
			"ip":     c.IP(),
			"path":   c.OriginalURL(),
			"method": c.Method(),
		}
		b, _ := json.Marshal(lastReq)
		ctx := context.Background()
		_, _ = rdb.Set(ctx, KeyLastReq, b, 0).Result()
		_, _ = rdb.Incr(ctx, KeyReqTotal).Result()

		err := c.Next()

		ms := time.Since(start).Milliseconds()
		_, _ = rdb.Incr(ctx, KeyResCount).Result()
		_, _ = rdb.IncrByFloat(ctx, KeyResTime, float64(ms)).Result()
		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		if status >= 500 {
			_, _ = rdb.Incr(ctx, KeyReqErrors).Result()
			msg := "status " + strconv.Itoa(status)
			if err != nil {
				msg = err.Error()
			}
			entry, _ := json.Marshal(map[string]interface{}{
				"time":    time.Now(),
				"path":    c.OriginalURL(),
				"method":  c.Method(),
				"message": msg,
				"traceId": GetTraceID(c),
			})
			pipe := rdb.TxPipeline()
			pipe.LPush(ctx, KeyErrorLog, entry)
			pipe.LTrim(ctx, KeyErrorLog, 0, errorLogSize-1)
			_, _ = pipe.Exec(ctx)
		}
		return err
	}
}
