package router

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"inmuebles-backend/internal/application/audit"
	authsvc "inmuebles-backend/internal/application/auth"
	"inmuebles-backend/internal/application/catalog"
	"inmuebles-backend/internal/application/emails"
	healthsvc "inmuebles-backend/internal/application/health"
	leadsvc "inmuebles-backend/internal/application/leads"
	propsvc "inmuebles-backend/internal/application/properties"
	"inmuebles-backend/internal/config"
	"inmuebles-backend/internal/infrastructure/database"
	"inmuebles-backend/internal/infrastructure/storage"
	audithandler "inmuebles-backend/internal/interfaces/handlers/audit"
	authhandler "inmuebles-backend/internal/interfaces/handlers/auth"
	healthhandler "inmuebles-backend/internal/interfaces/handlers/health"
	leadhandler "inmuebles-backend/internal/interfaces/handlers/leads"
	prophandler "inmuebles-backend/internal/interfaces/handlers/properties"
	"inmuebles-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// BodyLimit leaves room for a batch of gallery images in one multipart request.
const BodyLimit = 100 << 20

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// ImageStore is the object storage the gallery and image deletes run against.
type ImageStore interface {
	Upload(ctx context.Context, key string, body []byte, contentType string, progress func(sent, total int64)) (string, error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(url string) (string, error)
	Ping(ctx context.Context) error
}

// Deps are the long-lived clients the routes share. Each is created once per
// process. Nil DB leaves only the health routes mounted; nil Images makes
// uploads answer 503.
type Deps struct {
	DB       *gorm.DB
	Rdb      *redis.Client
	Images   ImageStore
	Notifier leadsvc.Notifier
}

// CreateApp opens the database, Redis and the image bucket from cfg and
// returns the wired app.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	var deps Deps

	if cfg.DatabaseURL != "" {
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("router: open database: %w", err)
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, nil, nil, fmt.Errorf("router: migrate: %w", err)
		}
		deps.DB = db
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("router: parse REDIS_URL: %w", err)
		}
		deps.Rdb = redis.NewClient(opts)
	}

	if cfg.S3Bucket != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		s3, err := storage.NewS3Storage(ctx, storage.Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PublicURL:       cfg.S3PublicURL,
		})
		cancel()
		if err != nil {
			return nil, nil, nil, err
		}
		deps.Images = s3
	} else {
		log.Warn().Msg("router: S3_BUCKET not set, image uploads disabled")
	}

	if cfg.BrevoAPIKey != "" {
		deps.Notifier = &emails.BrevoClient{
			APIKey:   cfg.BrevoAPIKey,
			MailFrom: cfg.MailFrom,
			NotifyTo: cfg.LeadsNotifyEmail,
			SiteURL:  cfg.SiteURL,
		}
	}

	return New(cfg, deps), deps.DB, deps.Rdb, nil
}

// New mounts middleware and routes on a fresh Fiber app.
func New(cfg *config.Config, deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
		BodyLimit:               BodyLimit,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix:  cfg.FrontendURLEndsWith,
		DevPassword:    cfg.DevPassword,
		AllowLocalhost: !cfg.IsProduction(),
	}))
	app.Use(middleware.HealthMarker(deps.Rdb))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	hh := &healthhandler.Handlers{
		Rdb:            deps.Rdb,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	if deps.DB != nil {
		hh.DB = &gormDBPinger{db: deps.DB}
	}
	if deps.Images != nil {
		hh.Storage = healthsvc.StoragePinger(deps.Images)
	}
	app.Get("/", hh.Dashboard)
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	if deps.DB == nil {
		log.Warn().Msg("router: DATABASE_URL not set, only health routes are mounted")
		return app
	}

	recorder := &audit.Recorder{DB: deps.DB}
	sessions := &authsvc.Sessions{
		Secret: []byte(cfg.SessionSecret),
		TTL:    time.Duration(cfg.SessionTTLHours) * time.Hour,
		Rdb:    deps.Rdb,
		Finder: &authsvc.GormAdminFinder{DB: deps.DB},
	}

	props := &propsvc.Service{DB: deps.DB, Audit: recorder}
	ph := &prophandler.Handlers{
		Service: props,
		Catalog: &catalog.Service{DB: deps.DB},
	}
	if deps.Images != nil {
		props.Storage = deps.Images
		ph.Uploader = deps.Images
	}

	leads := &leadsvc.Service{DB: deps.DB, Audit: recorder, Notifier: deps.Notifier}
	lh := &leadhandler.Handlers{Service: leads, Properties: props}

	api := app.Group("/api/v1")
	api.Get("/propiedades", ph.Search)
	api.Get("/propiedades/:slug", ph.Detail)
	api.Post("/propiedades/:slug/leads", lh.DetailForm)
	api.Post("/contacto", lh.Contact)

	ah := &authhandler.Handlers{Sessions: sessions, Secure: cfg.IsProduction()}
	gate := middleware.RequireAdmin(sessions)
	authGroup := api.Group("/auth")
	authGroup.Post("/session", ah.Login)
	authGroup.Post("/logout", ah.Logout)
	authGroup.Get("/me", gate, ah.Me)

	auh := &audithandler.Handlers{Events: recorder}
	admin := api.Group("/admin", gate)
	admin.Get("/propiedades", ph.List)
	admin.Get("/propiedades/slug-disponible", ph.SlugAvailable)
	admin.Post("/propiedades", ph.Create)
	admin.Get("/propiedades/:id", ph.Get)
	admin.Put("/propiedades/:id", ph.Update)
	admin.Patch("/propiedades/:id/estado", ph.ChangeStatus)
	admin.Post("/propiedades/:id/imagenes", ph.UploadImages)
	admin.Delete("/propiedades/:id/imagenes", ph.DeleteImage)
	admin.Get("/leads", lh.List)
	admin.Post("/leads", lh.Create)
	admin.Patch("/leads/:id", lh.Update)
	admin.Get("/auditoria", auh.List)

	return app
}

func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
