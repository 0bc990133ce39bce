package health

import (
	"context"
	"encoding/json"
	"runtime"
	"strconv"
	"time"

	"inmuebles-backend/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// DBPinger is optional for health check. If nil, database is reported as disconnected.
type DBPinger interface {
	Ping() error
}

// StoragePinger checks the image bucket. If nil, storage is reported as disconnected.
type StoragePinger interface {
	Ping(ctx context.Context) error
}

// CollectResult is the payload of /health/json and the dashboard.
type CollectResult struct {
	Status       string               `json:"status"`
	Runtime      RuntimeInfo          `json:"runtime"`
	Traffic      TrafficInfo          `json:"traffic"`
	Dependencies map[string]DepStatus `json:"dependencies"`
}

type RuntimeInfo struct {
	UptimeSeconds int64      `json:"uptimeSeconds"`
	Memory        MemoryInfo `json:"memory"`
	Goroutines    int        `json:"goroutines"`
	Platform      string     `json:"platform"`
	GoVersion     string     `json:"goVersion"`
}

type MemoryInfo struct {
	Alloc    int `json:"alloc"`
	HeapUsed int `json:"heapUsed"`
}

type TrafficInfo struct {
	TotalRequests   int         `json:"totalRequests"`
	SuccessCount    int         `json:"successCount"`
	FailedCount     int         `json:"failedCount"`
	SuccessRate     string      `json:"successRate"`
	AvgResponseTime interface{} `json:"avgResponseTime"`
	LastRequest     interface{} `json:"lastRequest"`
}

type DepStatus struct {
	Status string      `json:"status"`
	PingMs interface{} `json:"pingMs"`
}

const pingTimeout = 3 * time.Second

// CollectHealth gathers dependency status and traffic stats. The service is
// "ok" when the database and Redis answer and the bucket, if configured, does too.
func CollectHealth(ctx context.Context, rdb *redis.Client, db DBPinger, storage StoragePinger) CollectResult {
	result := CollectResult{
		Dependencies: make(map[string]DepStatus),
	}

	dbDep := ping(func() error { return db.Ping() }, db != nil)
	result.Dependencies["database"] = dbDep

	stats := TrafficInfo{AvgResponseTime: 0, SuccessRate: "100"}
	startTimeMs := time.Now().UnixMilli()
	redisDep := DepStatus{Status: "disconnected"}
	if rdb != nil {
		redisDep = ping(func() error { return rdb.Ping(ctx).Err() }, true)
		if redisDep.Status == "connected" {
			startTimeMs = readTraffic(ctx, rdb, &stats, startTimeMs)
		}
	}
	result.Dependencies["redis"] = redisDep

	storageDep := ping(func() error {
		sctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		return storage.Ping(sctx)
	}, storage != nil)
	result.Dependencies["storage"] = storageDep

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptimeSec := (time.Now().UnixMilli() - startTimeMs) / 1000
	if uptimeSec < 0 {
		uptimeSec = 0
	}
	result.Runtime = RuntimeInfo{
		UptimeSeconds: uptimeSec,
		Memory:        MemoryInfo{Alloc: int(m.Alloc / 1024 / 1024), HeapUsed: int(m.HeapInuse / 1024 / 1024)},
		Goroutines:    runtime.NumGoroutine(),
		Platform:      runtime.GOOS + " (" + runtime.GOARCH + ")",
		GoVersion:     runtime.Version(),
	}
	result.Traffic = stats

	if dbDep.Status == "connected" && redisDep.Status == "connected" && storageDep.Status != "error" {
		result.Status = "ok"
	} else {
		result.Status = "issue"
	}
	return result
}

func ping(fn func() error, configured bool) DepStatus {
	if !configured {
		return DepStatus{Status: "disconnected"}
	}
	start := time.Now()
	if err := fn(); err != nil {
		return DepStatus{Status: "error"}
	}
	ms := time.Since(start).Milliseconds()
	return DepStatus{Status: "connected", PingMs: &ms}
}

// readTraffic fills stats from the HealthMarker counters and returns the
// recorded start time, seeding it on first use.
func readTraffic(ctx context.Context, rdb *redis.Client, stats *TrafficInfo, startTimeMs int64) int64 {
	totalReq, _ := rdb.Get(ctx, middleware.KeyReqTotal).Result()
	totalErr, _ := rdb.Get(ctx, middleware.KeyReqErrors).Result()
	totalTime, _ := rdb.Get(ctx, middleware.KeyResTime).Result()
	resCount, _ := rdb.Get(ctx, middleware.KeyResCount).Result()
	startTimeStr, _ := rdb.Get(ctx, middleware.KeyStartTime).Result()
	lastReqStr, _ := rdb.Get(ctx, middleware.KeyLastReq).Result()

	if startTimeStr != "" {
		if t, err := strconv.ParseInt(startTimeStr, 10, 64); err == nil {
			startTimeMs = t
		}
	} else {
		rdb.Set(ctx, middleware.KeyStartTime, startTimeMs, 0)
	}

	stats.TotalRequests, _ = strconv.Atoi(totalReq)
	stats.FailedCount, _ = strconv.Atoi(totalErr)
	stats.SuccessCount = stats.TotalRequests - stats.FailedCount
	if stats.TotalRequests > 0 {
		stats.SuccessRate = strconv.FormatFloat(float64(stats.SuccessCount)/float64(stats.TotalRequests)*100, 'f', 1, 64)
	}
	timeSum, _ := strconv.ParseFloat(totalTime, 64)
	countSum, _ := strconv.Atoi(resCount)
	if countSum > 0 {
		stats.AvgResponseTime = strconv.FormatFloat(timeSum/float64(countSum), 'f', 2, 64)
	}
	if lastReqStr != "" {
		var lastReq map[string]interface{}
		_ = json.Unmarshal([]byte(lastReqStr), &lastReq)
		stats.LastRequest = lastReq
	}
	return startTimeMs
}
