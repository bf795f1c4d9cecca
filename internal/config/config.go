// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries all runtime settings. Values come from the environment,
// optionally preloaded from a .env file.
type Config struct {
	Environment string // dev or prod
	Port        string
	SecretKey   string

	// DatabaseURL selects the store: postgres://... for a server,
	// anything else is treated as a SQLite file path.
	DatabaseURL string

	// Upload constraints
	MaxUploadBytes   int64
	AllowedMIMETypes []string

	// Media storage. When MinIO is not configured uploads land in UploadDir.
	UploadDir       string
	MinioEndpoint   string
	MinioAccessKey  string
	MinioSecretKey  string
	MinioBucket     string
	MinioUseSSL     bool
	FeedbackURL     string
	FeedbackTimeout time.Duration
}

const defaultMaxUploadBytes = 10 << 20 // 10MB

// Load reads configuration from the environment. A missing .env file is not
// an error.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Environment:      getenv("QUESTLAB_ENV", "dev"),
		Port:             getenv("PORT", "8080"),
		SecretKey:        getenv("SECRET_KEY", "dev-key-change-in-production"),
		DatabaseURL:      getenv("DATABASE_URL", "questlab.db"),
		MaxUploadBytes:   defaultMaxUploadBytes,
		AllowedMIMETypes: splitList(getenv("ALLOWED_MIME_TYPES", "image/png,image/jpeg,image/gif,video/mp4,video/quicktime")),
		UploadDir:        getenv("UPLOAD_DIR", "instance/uploads"),
		MinioEndpoint:    os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey:   os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey:   os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:      getenv("MINIO_BUCKET", "questlab-media"),
		MinioUseSSL:      os.Getenv("MINIO_USE_SSL") == "true",
		FeedbackURL:      os.Getenv("FEEDBACK_URL"),
		FeedbackTimeout:  15 * time.Second,
	}

	if raw := os.Getenv("MAX_UPLOAD_BYTES"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			cfg.MaxUploadBytes = n
		}
	}
	if raw := os.Getenv("FEEDBACK_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			cfg.FeedbackTimeout = d
		}
	}
	return cfg
}

// MIMEAllowed reports whether the sniffed content type is in the allowed set.
func (c Config) MIMEAllowed(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	// Strip parameters like "; charset=utf-8"
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	for _, allowed := range c.AllowedMIMETypes {
		if ct == allowed {
			return true
		}
	}
	return false
}

// IsProd reports whether the app runs in production mode.
func (c Config) IsProd() bool {
	return c.Environment == "prod" || c.Environment == "production"
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
