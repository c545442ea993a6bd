package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all service configuration loaded from environment variables.
// It is built once at startup and passed by reference into every component.
type Config struct {
	Port string
	Env  string

	MongoURI string
	MongoDB  string

	JWTSecret string

	RedisAddr     string
	RedisPassword string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioPublicURL string

	AmqpURL string

	ResendAPIKey string
	EmailFrom    string
	EmailName    string

	ClientURL string
}

// Load reads the environment (plus an optional .env file) into a Config.
// It returns an error naming every required variable that is missing, so
// the process refuses to serve traffic with an incomplete configuration.
func Load() (*Config, error) {
	// A missing .env is fine; real environments inject variables directly.
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getenv("PORT", "8080"),
		Env:            getenv("APP_ENV", "development"),
		MongoURI:       getenv("MONGO_URI", ""),
		MongoDB:        getenv("MONGO_DB", "keyhaven"),
		JWTSecret:      getenv("JWT_SECRET", ""),
		RedisAddr:      getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword:  getenv("REDIS_PASSWORD", ""),
		MinioEndpoint:  getenv("MINIO_ENDPOINT", "minio:9000"),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "properties"),
		MinioUseSSL:    getenv("MINIO_USE_SSL", "false") == "true",
		MinioPublicURL: getenv("MINIO_PUBLIC_URL", ""),
		AmqpURL:        getenv("AMQP_URL", ""),
		ResendAPIKey:   getenv("RESEND_API_KEY", ""),
		EmailFrom:      getenv("EMAIL_FROM", ""),
		EmailName:      getenv("EMAIL_NAME", "KeyHaven"),
		ClientURL:      getenv("CLIENT_URL", ""),
	}

	required := []struct{ name, val string }{
		{"MONGO_URI", cfg.MongoURI},
		{"JWT_SECRET", cfg.JWTSecret},
		{"MINIO_ACCESS_KEY", cfg.MinioAccessKey},
		{"MINIO_SECRET_KEY", cfg.MinioSecretKey},
		{"RESEND_API_KEY", cfg.ResendAPIKey},
		{"EMAIL_FROM", cfg.EmailFrom},
		{"CLIENT_URL", cfg.ClientURL},
	}
	var missing []string
	for _, r := range required {
		if r.val == "" {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("config: missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// IsDevelopment reports whether the service runs in a development environment.
// Session cookies only set the Secure flag outside development.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
