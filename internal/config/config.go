package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	DatabaseURL         string
	RedisURL            string
	SessionSecret       string
	SessionTTLHours     int
	S3Bucket            string
	S3Region            string
	S3Endpoint          string // R2/MinIO endpoint; empty means AWS
	S3AccessKeyID       string
	S3SecretAccessKey   string
	S3PublicURL         string // base URL images are served from
	FrontendURLEndsWith string
	DevPassword         string
	HealthAdminKey      string
	BrevoAPIKey         string // BREVO_API_KEY (SENDINBLUE_API_KEY accepted) for lead notifications
	MailFrom            string
	LeadsNotifyEmail    string
	SiteURL             string
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("SESSION_TTL_HOURS", 24)
	viper.SetDefault("S3_REGION", "auto")
	viper.SetDefault("SITE_URL", "https://isahouse.co")

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL")
	if dbURL == "" {
		switch env {
		case "production":
			dbURL = viper.GetString("DATABASE_URL_PROD")
		case "test":
			dbURL = viper.GetString("DATABASE_URL_TEST")
		default:
			dbURL = viper.GetString("DATABASE_URL_DEV")
		}
	}
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL_DEV")
	}

	brevoKey := viper.GetString("BREVO_API_KEY")
	if brevoKey == "" {
		brevoKey = viper.GetString("SENDINBLUE_API_KEY")
	}

	ttl := viper.GetInt("SESSION_TTL_HOURS")
	if ttl <= 0 {
		ttl = 24
	}

	return &Config{
		Env:                 env,
		Port:                viper.GetString("PORT"),
		DatabaseURL:         dbURL,
		RedisURL:            viper.GetString("REDIS_URL"),
		SessionSecret:       viper.GetString("SESSION_SECRET"),
		SessionTTLHours:     ttl,
		S3Bucket:            viper.GetString("S3_BUCKET"),
		S3Region:            viper.GetString("S3_REGION"),
		S3Endpoint:          viper.GetString("S3_ENDPOINT"),
		S3AccessKeyID:       viper.GetString("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey:   viper.GetString("S3_SECRET_ACCESS_KEY"),
		S3PublicURL:         viper.GetString("S3_PUBLIC_URL"),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		HealthAdminKey:      viper.GetString("HEALTH_ADMIN_KEY"),
		BrevoAPIKey:         brevoKey,
		MailFrom:            viper.GetString("MAIL_FROM"),
		LeadsNotifyEmail:    viper.GetString("LEADS_NOTIFY_EMAIL"),
		SiteURL:             strings.TrimRight(viper.GetString("SITE_URL"), "/"),
	}, nil
}
