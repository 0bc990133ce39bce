package main

import (
	"context"
	"net/http"

	"inmuebles-backend/bootstrap"
	"inmuebles-backend/internal/config"
	"inmuebles-backend/internal/interfaces/router"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var fiberApp *fiber.App
var appCfg *config.Config
var startupDB *gorm.DB
var startupRdb *redis.Client

func init() {
	cfg, err := config.Load()
	if err != nil {
		panic("config load: " + err.Error())
	}
	appCfg = cfg
	bootstrap.ConfigureLogging(cfg)
	app, db, rdb, err := router.CreateApp(cfg)
	if err != nil {
		panic("app create: " + err.Error())
	}
	fiberApp = app
	startupDB = db
	startupRdb = rdb
}

func Handler(w http.ResponseWriter, r *http.Request) {
	adaptor.FiberApp(fiberApp)(w, r)
}

func main() {
	port := appCfg.Port

	if startupDB != nil {
		sqlDB, err := startupDB.DB()
		if err != nil {
			log.Fatal().Err(err).Msg("Postgres: get DB")
		}
		if err := sqlDB.Ping(); err != nil {
			log.Fatal().Err(err).Msg("Postgres connection failed")
		}
		log.Info().Msg("Postgres connected")
	}
	if startupRdb != nil {
		if err := startupRdb.Ping(context.Background()).Err(); err != nil {
			log.Fatal().Err(err).Msg("Redis connection failed")
		}
		log.Info().Msg("Redis connected")
	}
	log.Info().Str("env", appCfg.Env).Msgf("Server running at http://localhost:%s", port)
	log.Info().Msgf("Health check: http://localhost:%s/health/json", port)

	if err := fiberApp.Listen(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
