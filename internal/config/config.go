package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

const (
	DefaultPort            = 8080
	DefaultDatabase        = "toolkithub"
	DefaultCatalogCacheTTL = 5 * time.Minute
	AdminSessionTTL        = 4 * time.Hour
)

// Config is the process configuration read from the environment.
// Secrets have no defaults.
type Config struct {
	Port            int
	MongoURI        string
	MongoDatabase   string
	RedisURL        string
	CatalogCacheTTL time.Duration
	JWTSecret       string
	SessionKey      string
	CookieSecure    bool
	AllowedOrigins  []string

	OAuthCallbackBaseURL string
	GoogleClientID       string
	GoogleClientSecret   string
	GitHubClientID       string
	GitHubClientSecret   string

	AdminID           string
	AdminPasswordHash string
}

// AdminEnabled reports whether both admin credentials are configured.
func (c *Config) AdminEnabled() bool {
	return c.AdminID != "" && c.AdminPasswordHash != ""
}

// Load reads the configuration from the environment, after .env has been
// applied by godotenv.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                 DefaultPort,
		MongoURI:             os.Getenv("MONGO_URI"),
		MongoDatabase:        getEnv("MONGO_DATABASE", DefaultDatabase),
		RedisURL:             os.Getenv("REDIS_URL"),
		CatalogCacheTTL:      DefaultCatalogCacheTTL,
		JWTSecret:            os.Getenv("JWT_SECRET"),
		SessionKey:           os.Getenv("SESSION_KEY"),
		OAuthCallbackBaseURL: getEnv("OAUTH_CALLBACK_BASE_URL", "http://localhost:8080"),
		GoogleClientID:       os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:   os.Getenv("GOOGLE_CLIENT_SECRET"),
		GitHubClientID:       os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret:   os.Getenv("GITHUB_CLIENT_SECRET"),
		AdminID:              os.Getenv("ADMIN_ID"),
		AdminPasswordHash:    os.Getenv("ADMIN_PASSWORD_HASH"),
		AllowedOrigins:       splitList(os.Getenv("ALLOWED_ORIGINS")),
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 {
			return nil, errors.New("PORT must be a positive integer")
		}
		cfg.Port = port
	}
	if v := os.Getenv("CATALOG_CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, errors.New("CATALOG_CACHE_TTL must be a duration such as 5m")
		}
		cfg.CatalogCacheTTL = ttl
	}
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errors.New("COOKIE_SECURE must be true or false")
		}
		cfg.CookieSecure = secure
	}

	if cfg.MongoURI == "" {
		return nil, errors.New("MONGO_URI environment variable not set")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable not set")
	}
	if cfg.SessionKey == "" {
		cfg.SessionKey = cfg.JWTSecret
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
