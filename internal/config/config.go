package config

import (
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr       string
	CORSOrigin string
	LogLevel   string
	// Key-value document store
	KVURL        string
	KVKey        string
	DefaultsPath string
	// Admin session
	AdminUsername     string
	AdminPassword     string
	AdminPasswordHash string
	SessionTTL        time.Duration
	CookieSecure      bool
	// Contact messages (optional Postgres)
	DatabaseURL   string
	MigrationsDir string
	// SMTP Configuration
	SMTPHost       string
	SMTPPort       string
	SMTPUsername   string
	SMTPPassword   string
	SMTPFrom       string
	SMTPFromName   string
	ContactToEmail string
	// Project search
	MeiliURL       string
	MeiliMasterKey string
	// Media uploads
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioPublicURL string
}

func Load() Config {
	return Config{
		Addr:       getenv("API_ADDR", ":8787"),
		CORSOrigin: getenv("CORS_ORIGIN", "*"),
		LogLevel:   getenv("LOG_LEVEL", "info"),
		// KV - no default, content endpoints fail with a configuration error when unset
		KVURL:        ResolveKVURL(),
		KVKey:        getenv("PORTFOLIO_KV_KEY", "portfolio:data"),
		DefaultsPath: getenv("PORTFOLIO_DEFAULTS_PATH", ""),
		// Admin credentials - password or bcrypt hash must be set, login always fails otherwise
		AdminUsername:     getenv("ADMIN_USERNAME", "admin"),
		AdminPassword:     getenv("ADMIN_PASSWORD", ""),
		AdminPasswordHash: getenv("ADMIN_PASSWORD_HASH", ""),
		SessionTTL:        time.Duration(getenvInt("SESSION_TTL_SECONDS", 604800)) * time.Second,
		CookieSecure:      getenvBool("COOKIE_SECURE", false),
		// Postgres - contact messages are not persisted when empty
		DatabaseURL:   getenv("DATABASE_URL", ""),
		MigrationsDir: getenv("MIGRATIONS_DIR", "./db/migrations"),
		// SMTP - empty by default, email disabled if not configured
		SMTPHost:       getenv("SMTP_HOST", ""),
		SMTPPort:       getenv("SMTP_PORT", "587"),
		SMTPUsername:   getenv("SMTP_USERNAME", ""),
		SMTPPassword:   getenv("SMTP_PASSWORD", ""),
		SMTPFrom:       getenv("SMTP_FROM", ""),
		SMTPFromName:   getenv("SMTP_FROM_NAME", "Portfolio"),
		ContactToEmail: getenv("CONTACT_TO_EMAIL", ""),
		MeiliURL:       getenv("MEILI_URL", ""),
		MeiliMasterKey: getenv("MEILI_MASTER_KEY", ""),
		MinioEndpoint:  getenv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "portfolio-media"),
		MinioUseSSL:    getenvBool("MINIO_USE_SSL", false),
		MinioPublicURL: getenv("MINIO_PUBLIC_URL", ""),
	}
}

// ResolveKVURL picks the Redis connection URL for the document store. A direct
// KV_URL/REDIS_URL wins; otherwise the Upstash REST pair is translated into the
// equivalent TLS Redis endpoint.
func ResolveKVURL() string {
	if direct := firstEnv("KV_URL", "REDIS_URL"); direct != "" {
		return direct
	}
	restURL := firstEnv("KV_REST_API_URL", "UPSTASH_REDIS_REST_URL")
	token := firstEnv("KV_REST_API_TOKEN", "UPSTASH_REDIS_REST_TOKEN")
	if restURL == "" || token == "" {
		return ""
	}
	return UpstashRedisURL(restURL, token)
}

// UpstashRedisURL converts an Upstash REST endpoint and token into a rediss:// URL.
func UpstashRedisURL(restURL, token string) string {
	parsed, err := url.Parse(strings.TrimSpace(restURL))
	if err != nil || parsed.Hostname() == "" {
		return ""
	}
	u := url.URL{
		Scheme: "rediss",
		User:   url.UserPassword("default", strings.TrimSpace(token)),
		Host:   net.JoinHostPort(parsed.Hostname(), "6379"),
	}
	return u.String()
}

// SMTPConfigured reports whether enough SMTP settings are present to send mail.
func (c Config) SMTPConfigured() bool {
	return c.SMTPHost != "" && c.SMTPPort != "" && c.SMTPFrom != ""
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return ""
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
