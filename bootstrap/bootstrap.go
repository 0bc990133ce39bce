package bootstrap

import (
	"os"
	"time"

	"inmuebles-backend/internal/config"
	"inmuebles-backend/internal/interfaces/router"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New creates the Fiber app for Vercel serverless (api handler imports this package, not internal).
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	ConfigureLogging(cfg)
	app, _, _, err := router.CreateApp(cfg)
	return app, err
}

// ConfigureLogging sets the global zerolog logger: JSON at info level in
// production, a console writer at debug level elsewhere.
func ConfigureLogging(cfg *config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if cfg.IsProduction() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Str("service", "inmuebles-api").Logger()
		return
	}
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}
