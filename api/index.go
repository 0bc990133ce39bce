package handler

import (
	"net/http"

	"inmuebles-backend/bootstrap"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/rs/zerolog/log"
)

var (
	fiberApp *fiber.App
	bootErr  error
)

func init() {
	fiberApp, bootErr = bootstrap.New()
	if bootErr != nil {
		log.Error().Err(bootErr).Msg("api: app create failed")
	}
}

// Handler is the Vercel serverless entry point. All requests are rewritten here.
// A failed boot answers 503 with the standard error envelope instead of
// crashing the function.
func Handler(w http.ResponseWriter, r *http.Request) {
	if bootErr != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"ok":false,"error":"Servicio no disponible."}`))
		return
	}
	r.RequestURI = r.URL.String()
	adaptor.FiberApp(fiberApp)(w, r)
}
